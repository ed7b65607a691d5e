package v1

import (
	"errors"
	"net/http"

	"settlement-engine/internal/delivery/http/middleware"
	"settlement-engine/internal/domain"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/logger"
	"settlement-engine/pkg/utils"
)

type SettlementHandler struct {
	settlementUC *usecase.SettlementUsecase
}

func NewSettlementHandler(uc *usecase.SettlementUsecase) *SettlementHandler {
	return &SettlementHandler{settlementUC: uc}
}

type committedResp struct {
	Status  string  `json:"status"`
	OrderID string  `json:"orderId"`
	Total   float64 `json:"total"`
}

type rejectedResp struct {
	Status string `json:"status"`
	domain.Rejection
}

// Quote previews pricing for a cart. Anonymous callers are quoted as guests.
func (h *SettlementHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req domain.SettlementRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := bindCaller(r, &req, false); err != nil {
		writeRejection(w, r, err)
		return
	}

	quote, err := h.settlementUC.Quote(r.Context(), req)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, quote)
}

// Settle reconciles and commits an order.
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req domain.SettlementRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := bindCaller(r, &req, true); err != nil {
		writeRejection(w, r, err)
		return
	}

	order, err := h.settlementUC.Settle(r.Context(), req)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, committedResp{
		Status:  "committed",
		OrderID: order.ID,
		Total:   order.Total,
	})
}

var errStaffOnly = errors.New("store channel requires a staff token")

// bindCaller decides whose order this is. Website orders belong to the
// token holder (or a guest); the client cannot pick another user. Store
// orders are keyed in by staff, who may name the customer.
func bindCaller(r *http.Request, req *domain.SettlementRequest, commit bool) error {
	user := middleware.UserFromContext(r.Context())
	if req.Channel == domain.ChannelStore {
		if !commit {
			return nil
		}
		if user == nil || (user.Role != domain.RoleStaff && user.Role != domain.RoleAdmin) {
			return errStaffOnly
		}
		return nil
	}
	req.UserID = ""
	if user != nil {
		req.UserID = user.ID
	}
	return nil
}

func writeRejection(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errStaffOnly) {
		utils.WriteError(w, http.StatusForbidden, err.Error())
		return
	}

	status := statusFor(err)
	rej := domain.RejectionFromError(err)
	log := logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Settlement request failed")
	} else {
		log.Info().Str("reason", rej.Reason).Str("message", rej.Message).Msg("Settlement request rejected")
	}
	utils.WriteJSON(w, status, rejectedResp{Status: "rejected", Rejection: rej})
}

func statusFor(err error) int {
	switch domain.RejectionFromError(err).Reason {
	case domain.ReasonValidation:
		return http.StatusBadRequest
	case domain.ReasonIneligible, domain.ReasonPriceMismatch, domain.ReasonInsufficientStock:
		return http.StatusUnprocessableEntity
	case domain.ReasonNotFound:
		return http.StatusNotFound
	case domain.ReasonConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
