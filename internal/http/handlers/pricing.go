package handlers

import (
	"context"

	"github.com/visionaihq/visionai-api/internal/models"
)

// PlanResponse is one entry in the public plan catalog.
type PlanResponse struct {
	ID          string `json:"id" doc:"Plan identifier used when opening a payment"`
	Name        string `json:"name" doc:"Display name"`
	PriceMinor  int64  `json:"price_minor" doc:"Price in minor currency units (0 = free tier)"`
	Currency    string `json:"currency" doc:"ISO currency code"`
	Credits     int64  `json:"credits" doc:"Credits granted on purchase (-1 = unlimited)"`
	Description string `json:"description" doc:"Marketing description"`
}

// ListPlansOutput is the response for the plan catalog endpoint.
type ListPlansOutput struct {
	Body struct {
		Plans []PlanResponse `json:"plans" doc:"Purchasable plans"`
	}
}

// ListPlans returns the plan catalog. This is a public endpoint for use in
// pricing pages; CreditsToGrant on a payment is snapshotted from the same
// catalog when the intent is opened.
func ListPlans(ctx context.Context, _ *struct{}) (*ListPlansOutput, error) {
	out := &ListPlansOutput{}
	for _, p := range models.Plans {
		out.Body.Plans = append(out.Body.Plans, PlanResponse{
			ID:          p.ID,
			Name:        p.Name,
			PriceMinor:  p.PriceMinor,
			Currency:    p.Currency,
			Credits:     p.Credits,
			Description: p.Description,
		})
	}
	return out, nil
}
