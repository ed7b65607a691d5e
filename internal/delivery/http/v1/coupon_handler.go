package v1

import (
	"net/http"

	"settlement-engine/internal/domain"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"
)

type CouponHandler struct {
	settlementUC *usecase.SettlementUsecase
}

func NewCouponHandler(uc *usecase.SettlementUsecase) *CouponHandler {
	return &CouponHandler{settlementUC: uc}
}

// ValidateCoupon checks a code against the cart before checkout. The
// response is 200 either way; "valid" and "reason" tell the client why.
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req domain.SettlementRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := bindCaller(r, &req, false); err != nil {
		writeRejection(w, r, err)
		return
	}

	res, err := h.settlementUC.CheckCoupon(r.Context(), req)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}
