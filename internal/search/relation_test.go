package search

import (
	"testing"

	"intern-hub/internal/model"
)

func strPtr(s string) *string { return &s }

func TestFirstOfPrefersSinglePointer(t *testing.T) {
	t.Parallel()

	single := model.Profile{ID: 1, Username: strPtr("direct")}
	many := []model.Profile{{ID: 2, Username: strPtr("merged")}}

	got := firstOf(&single, many)
	if got == nil || got.ID != 1 {
		t.Fatalf("expected single pointer to win, got %+v", got)
	}

	got = firstOf(nil, many)
	if got == nil || got.ID != 2 {
		t.Fatalf("expected slice head as fallback, got %+v", got)
	}

	if got := firstOf[model.Profile](nil, nil); got != nil {
		t.Fatalf("expected nil when both shapes missing, got %+v", got)
	}
}

func TestCompanyUsernameHandlesBothShapes(t *testing.T) {
	t.Parallel()

	preloaded := model.Company{Profile: &model.Profile{Username: strPtr("acme")}}
	if got := companyUsername(preloaded); got == nil || *got != "acme" {
		t.Fatalf("expected username from preloaded profile, got %v", got)
	}

	merged := model.Company{Profiles: []model.Profile{{Username: strPtr("acme-hq")}}}
	if got := companyUsername(merged); got == nil || *got != "acme-hq" {
		t.Fatalf("expected username from merged profiles, got %v", got)
	}

	if got := companyUsername(model.Company{}); got != nil {
		t.Fatalf("expected nil username for bare company, got %v", got)
	}
}

func TestToSliceNormalizesNil(t *testing.T) {
	t.Parallel()

	if got := toSlice[int](nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
	if got := toSlice([]int{1, 2}); len(got) != 2 {
		t.Fatalf("expected slice passthrough, got %v", got)
	}
}
