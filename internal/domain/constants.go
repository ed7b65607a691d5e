package domain

// Sales channels
type Channel string

const (
	ChannelStore   Channel = "store"
	ChannelWebsite Channel = "website"
)

func (c Channel) Valid() bool {
	return c == ChannelStore || c == ChannelWebsite
}

// Order Statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed" // POS sale handed over at the counter
	OrderStatusCancelled  = "cancelled"
)

// Payment Statuses
const (
	PaymentStatusPending     = "pending"
	PaymentStatusPaid        = "paid"
	PaymentStatusFailed      = "failed"
	PaymentStatusPartialPaid = "partial_paid"
)

// Payment Methods
const (
	PaymentMethodCash  = "cash"
	PaymentMethodCard  = "card"
	PaymentMethodCOD   = "cod"
	PaymentMethodBKash = "bkash"
	PaymentMethodNagad = "nagad"
)

// Coupon discount types
const (
	DiscountTypePercentage   = "percentage"
	DiscountTypeFixed        = "fixed"
	DiscountTypeFreeShipping = "free_shipping"
)

// Variant targeting modes
const (
	VariantModeAll      = "all"
	VariantModeSpecific = "specific"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusPartialPaid,
}

var PaymentMethods = []string{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodCOD,
	PaymentMethodBKash,
	PaymentMethodNagad,
}
