package v1

import (
	"net/http"

	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"
)

// AdminConfigHandler exposes master-data controls to admins.
type AdminConfigHandler struct {
	masterData *usecase.MasterData
}

func NewAdminConfigHandler(masterData *usecase.MasterData) *AdminConfigHandler {
	return &AdminConfigHandler{masterData: masterData}
}

// InvalidateMasterData drops cached promotions and shipping rules so the
// next settlement reads them fresh.
func (h *AdminConfigHandler) InvalidateMasterData(w http.ResponseWriter, r *http.Request) {
	h.masterData.Invalidate(r.Context())
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Master data cache invalidated"})
}

// GetShippingRules lists the active shipping rules as the calculator sees them.
func (h *AdminConfigHandler) GetShippingRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.masterData.ActiveShippingRules(r.Context())
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rules)
}

// GetPromotions lists the active promotions as the engine sees them.
func (h *AdminConfigHandler) GetPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.masterData.ActivePromotions(r.Context())
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, promos)
}
