package types

// AccessLevel is the coarse entitlement tier granted by a plan.
type AccessLevel string

const (
	AccessLevelBasic      AccessLevel = "basic"
	AccessLevelPro        AccessLevel = "pro"
	AccessLevelEnterprise AccessLevel = "enterprise"
)

// PlanDescriptor describes a purchasable plan. The ID is the opaque plan id
// assigned by the payment provider; access_level is always derived from the
// catalog, never taken from the webhook payload.
type PlanDescriptor struct {
	ID          string      `json:"id" mapstructure:"id"`
	Name        string      `json:"name" mapstructure:"name"`
	PriceCents  int64       `json:"price_cents" mapstructure:"price_cents"`
	AccessLevel AccessLevel `json:"access_level" mapstructure:"access_level"`
	Features    []string    `json:"features" mapstructure:"features"`
}
