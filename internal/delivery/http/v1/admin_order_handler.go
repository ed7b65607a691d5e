package v1

import (
	"net/http"

	"settlement-engine/internal/domain"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"
)

type AdminOrderHandler struct {
	settlementUC *usecase.SettlementUsecase
}

func NewAdminOrderHandler(uc *usecase.SettlementUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{settlementUC: uc}
}

type adminOrderResp struct {
	*domain.Order
	IntegrityValid bool `json:"integrityValid"`
}

// GetOrder returns the stored order with its integrity flag. A failed
// check is reported, never used to hide the order.
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "Order ID required")
		return
	}

	order, err := h.settlementUC.GetOrder(r.Context(), id)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	valid, err := h.settlementUC.VerifyIntegrity(r.Context(), id)
	if err != nil {
		writeRejection(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, adminOrderResp{Order: order, IntegrityValid: valid})
}

// VerifyIntegrity recomputes the order hash and compares it with the ledger.
func (h *AdminOrderHandler) VerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "Order ID required")
		return
	}

	valid, err := h.settlementUC.VerifyIntegrity(r.Context(), id)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orderId": id,
		"valid":   valid,
	})
}
