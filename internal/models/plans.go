package models

// UnlimitedCredits is the catalog sentinel for plans without a credit cap.
const UnlimitedCredits int64 = -1

// UnlimitedCreditsCeiling is the balance value written for unlimited plans.
// The balance is set to the ceiling rather than incremented.
const UnlimitedCreditsCeiling int64 = 999999

// PlanFree is the tier every account starts on.
const PlanFree = "free"

// Plan is a purchasable credit plan. Prices are in minor units (cents).
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceMinor  int64  `json:"price_minor"`
	Currency    string `json:"currency"`
	Credits     int64  `json:"credits"` // UnlimitedCredits for uncapped plans
	Description string `json:"description"`
}

// Unlimited reports whether the plan grants uncapped credits.
func (p Plan) Unlimited() bool {
	return p.Credits == UnlimitedCredits
}

// Plans is the in-process plan catalog. CreditsToGrant on a payment record
// is snapshotted from here at intent-creation time.
var Plans = []Plan{
	{
		ID:          PlanFree,
		Name:        "Starter",
		PriceMinor:  0,
		Currency:    "usd",
		Credits:     20,
		Description: "20 credits per month with HD quality images",
	},
	{
		ID:          "pro",
		Name:        "Professional",
		PriceMinor:  2999,
		Currency:    "usd",
		Credits:     1000,
		Description: "1000 credits per month with 2K quality images",
	},
	{
		ID:          "enterprise",
		Name:        "Enterprise",
		PriceMinor:  9999,
		Currency:    "usd",
		Credits:     UnlimitedCredits,
		Description: "Unlimited credits with 4K quality images",
	},
}

// PlanByID looks up a plan in the catalog. Returns false for unknown ids.
func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
