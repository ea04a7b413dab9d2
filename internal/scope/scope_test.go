package scope

import (
	"errors"
	"testing"

	"ledger-service/internal/apperr"
	"ledger-service/internal/auth"
	"ledger-service/internal/model"
)

func TestAssertOwned(t *testing.T) {
	caller := auth.Context{UserID: 1, OrgID: "org-a", Role: auth.RoleLandlord}

	owned := &model.Property{OrgID: "org-a"}
	if err := AssertOwned(owned, caller); err != nil {
		t.Fatalf("owned resource rejected: %v", err)
	}

	foreign := &model.Property{OrgID: "org-b"}
	if err := AssertOwned(foreign, caller); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign resource: expected ErrNotFound, got %v", err)
	}

	// Absent and foreign must be indistinguishable.
	if err := AssertOwned(nil, caller); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("nil resource: expected ErrNotFound, got %v", err)
	}
}
