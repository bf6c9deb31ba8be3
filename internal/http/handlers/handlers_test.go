package handlers

import (
	"context"
	"testing"

	"github.com/visionaihq/visionai-api/internal/models"
)

func TestHealthCheck(t *testing.T) {
	output, err := HealthCheck(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Body.Status != "healthy" {
		t.Errorf("Status = %q, want %q", output.Body.Status, "healthy")
	}
	if output.Body.Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestListPlans(t *testing.T) {
	output, err := ListPlans(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Body.Plans) != len(models.Plans) {
		t.Fatalf("len(Plans) = %d, want %d", len(output.Body.Plans), len(models.Plans))
	}

	byID := make(map[string]PlanResponse)
	for _, p := range output.Body.Plans {
		byID[p.ID] = p
	}

	free, ok := byID[models.PlanFree]
	if !ok {
		t.Fatal("free plan missing from catalog")
	}
	if free.PriceMinor != 0 {
		t.Errorf("free PriceMinor = %d, want 0", free.PriceMinor)
	}

	enterprise, ok := byID["enterprise"]
	if !ok {
		t.Fatal("enterprise plan missing from catalog")
	}
	if enterprise.Credits != models.UnlimitedCredits {
		t.Errorf("enterprise Credits = %d, want unlimited sentinel", enterprise.Credits)
	}
}
