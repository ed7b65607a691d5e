package domain

import (
	"errors"
	"fmt"
)

// Rejection reasons reported to callers.
const (
	ReasonValidation        = "validation"
	ReasonIneligible        = "ineligible"
	ReasonPriceMismatch     = "price_mismatch"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonNotFound          = "not_found"
	ReasonConflict          = "conflict"
	ReasonInternal          = "internal"
)

// ValidationError reports missing or malformed input. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// IneligibleError carries a reason that is safe to show to shoppers.
type IneligibleError struct {
	Subject string // coupon, promotion
	Code    string
	Reason  string
}

func (e *IneligibleError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s not applicable: %s", e.Subject, e.Reason)
	}
	return fmt.Sprintf("%s %s not applicable: %s", e.Subject, e.Code, e.Reason)
}

// PriceMismatchError means neither recomputed total is within tolerance of
// the submitted one.
type PriceMismatchError struct {
	Submitted     float64
	Computed      float64 // promotions assumed folded into line discounts
	WithPromotion float64 // promotion discount subtracted again
	Tolerance     float64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch: submitted %.2f, computed %.2f or %.2f (tolerance %.2f)",
		e.Submitted, e.Computed, e.WithPromotion, e.Tolerance)
}

type InsufficientStockError struct {
	Key       InventoryKey
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.Key, e.Available, e.Requested)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError is a transient write conflict. Retried internally.
type ConflictError struct {
	Op  string
	Err error
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return "write conflict during " + e.Op
	}
	return fmt.Sprintf("write conflict during %s: %v", e.Op, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// IntegrityMismatchError flags an order whose stored hash no longer matches.
// Informational only, reads are never blocked on it.
type IntegrityMismatchError struct {
	OrderID  string
	Stored   string
	Computed string
}

func (e *IntegrityMismatchError) Error() string {
	return fmt.Sprintf("integrity mismatch for order %s", e.OrderID)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Rejection is the caller-facing form of a failed settlement.
type Rejection struct {
	Reason  string         `json:"reason"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func RejectionFromError(err error) Rejection {
	var (
		validation *ValidationError
		ineligible *IneligibleError
		mismatch   *PriceMismatchError
		stock      *InsufficientStockError
		notFound   *NotFoundError
		conflict   *ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return Rejection{Reason: ReasonValidation, Message: err.Error(), Details: map[string]any{"field": validation.Field}}
	case errors.As(err, &ineligible):
		return Rejection{Reason: ReasonIneligible, Message: ineligible.Reason, Details: map[string]any{
			"subject": ineligible.Subject,
			"code":    ineligible.Code,
		}}
	case errors.As(err, &mismatch):
		return Rejection{Reason: ReasonPriceMismatch, Message: err.Error(), Details: map[string]any{
			"submitted":     mismatch.Submitted,
			"computed":      mismatch.Computed,
			"withPromotion": mismatch.WithPromotion,
		}}
	case errors.As(err, &stock):
		return Rejection{Reason: ReasonInsufficientStock, Message: err.Error(), Details: map[string]any{
			"productId": stock.Key.ProductID,
			"variantId": stock.Key.VariantID,
			"size":      stock.Key.Size,
			"available": stock.Available,
			"requested": stock.Requested,
		}}
	case errors.As(err, &notFound):
		return Rejection{Reason: ReasonNotFound, Message: err.Error(), Details: map[string]any{
			"resource": notFound.Resource,
			"id":       notFound.ID,
		}}
	case errors.As(err, &conflict):
		return Rejection{Reason: ReasonConflict, Message: "order could not be committed, please retry"}
	default:
		return Rejection{Reason: ReasonInternal, Message: "internal error"}
	}
}
