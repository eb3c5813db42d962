package achievements

import (
	"testing"
	"time"
)

func TestRequirementsEmptyIsSatisfied(t *testing.T) {
	req, err := parseRequirements([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ok, err := req.satisfied(Stats{})
	if err != nil || !ok {
		t.Fatalf("expected empty requirements to hold, got %v (%v)", ok, err)
	}
	if !req.applies(Stats{}) {
		t.Fatalf("expected role-less requirements to apply")
	}
}

func TestRequirementsTechnicianRoleSkipsOthers(t *testing.T) {
	req := Requirements{Role: technician(), JobsCompleted: intp(1)}
	if req.applies(Stats{IsTechnician: false, JobsCompleted: 10}) {
		t.Fatalf("technician requirement must not apply to customers")
	}
	if !req.applies(Stats{IsTechnician: true}) {
		t.Fatalf("technician requirement must apply to technicians")
	}
	if (Requirements{Role: strp("customer")}).applies(Stats{}) {
		t.Fatalf("only the technician role is recognised")
	}
}

func TestRequirementsThresholds(t *testing.T) {
	req := Requirements{BookingsCompleted: intp(5), ReviewsWritten: intp(1)}
	if ok, _ := req.satisfied(Stats{BookingsCompleted: 5, ReviewsWritten: 0}); ok {
		t.Fatalf("expected conjunction to fail on reviews")
	}
	if ok, _ := req.satisfied(Stats{BookingsCompleted: 5, ReviewsWritten: 1}); !ok {
		t.Fatalf("expected thresholds to be inclusive")
	}
}

func TestRequirementsRatingNeedsMinReviews(t *testing.T) {
	req := Requirements{AverageRating: floatp(4.5), MinReviews: intp(10)}
	if ok, _ := req.satisfied(Stats{AverageRating: 4.9, TotalReviews: 9}); ok {
		t.Fatalf("expected min reviews to gate the rating")
	}
	if ok, _ := req.satisfied(Stats{AverageRating: 4.4, TotalReviews: 50}); ok {
		t.Fatalf("expected rating threshold to apply")
	}
	if ok, _ := req.satisfied(Stats{AverageRating: 4.5, TotalReviews: 10}); !ok {
		t.Fatalf("expected both bounds to be inclusive")
	}
}

func TestRequirementsVerifiedAndRegistration(t *testing.T) {
	verified := Requirements{IsVerified: boolp(true)}
	if ok, _ := verified.satisfied(Stats{IsVerified: true}); ok {
		t.Fatalf("verification requires a technician profile")
	}
	if ok, _ := verified.satisfied(Stats{IsTechnician: true, IsVerified: true}); !ok {
		t.Fatalf("expected verified technician to pass")
	}

	early := Requirements{RegisteredBefore: strp("2025-12-31")}
	if ok, _ := early.satisfied(Stats{RegisteredAt: time.Date(2025, 12, 30, 23, 0, 0, 0, time.UTC)}); !ok {
		t.Fatalf("expected registration before the deadline to pass")
	}
	if ok, _ := early.satisfied(Stats{RegisteredAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}); ok {
		t.Fatalf("expected late registration to fail")
	}
	bad := Requirements{RegisteredBefore: strp("soon")}
	if _, err := bad.satisfied(Stats{}); err == nil {
		t.Fatalf("expected malformed deadline to error")
	}
}

func TestCatalogHasUniqueCodes(t *testing.T) {
	if len(Catalog) != 22 {
		t.Fatalf("expected 22 achievements, got %d", len(Catalog))
	}
	seen := map[string]bool{}
	for _, def := range Catalog {
		if seen[def.Code] {
			t.Fatalf("duplicate code %s", def.Code)
		}
		seen[def.Code] = true
		if _, err := def.Model(); err != nil {
			t.Fatalf("model %s: %v", def.Code, err)
		}
	}
}
