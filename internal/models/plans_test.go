package models

import "testing"

func TestPlanByID(t *testing.T) {
	tests := []struct {
		id    string
		found bool
	}{
		{"free", true},
		{"pro", true},
		{"enterprise", true},
		{"premium", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, ok := PlanByID(tt.id)
			if ok != tt.found {
				t.Errorf("PlanByID(%q) found = %v, want %v", tt.id, ok, tt.found)
			}
		})
	}
}

func TestPlanCatalog(t *testing.T) {
	pro, ok := PlanByID("pro")
	if !ok {
		t.Fatal("pro plan missing from catalog")
	}
	if pro.Credits != 1000 {
		t.Errorf("pro credits = %d, want 1000", pro.Credits)
	}
	if pro.PriceMinor != 2999 {
		t.Errorf("pro price = %d, want 2999", pro.PriceMinor)
	}
	if pro.Unlimited() {
		t.Error("pro should not be unlimited")
	}

	ent, _ := PlanByID("enterprise")
	if !ent.Unlimited() {
		t.Error("enterprise should be unlimited")
	}

	free, _ := PlanByID(PlanFree)
	if free.PriceMinor != 0 {
		t.Errorf("free price = %d, want 0", free.PriceMinor)
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	if PaymentStatusPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	for _, s := range []PaymentStatus{PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCanceled, PaymentStatusRefunded} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
