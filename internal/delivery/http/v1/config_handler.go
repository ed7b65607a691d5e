package v1

import (
	"net/http"

	"settlement-engine/internal/domain"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"
)

type ConfigHandler struct {
	masterData *usecase.MasterData
}

func NewConfigHandler(masterData *usecase.MasterData) *ConfigHandler {
	return &ConfigHandler{masterData: masterData}
}

// GET /api/v1/config/enums
// Lists the values checkout and POS clients may submit.
func (h *ConfigHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	rules, err := h.masterData.ActiveShippingRules(r.Context())
	if err != nil {
		writeRejection(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"channels":        []domain.Channel{domain.ChannelStore, domain.ChannelWebsite},
		"paymentStatuses": domain.PaymentStatuses,
		"paymentMethods":  domain.PaymentMethods,
		"shippingRules":   rules,
	})
}
