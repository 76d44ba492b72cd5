package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kabro/accesscore/pkg/delegation"
	"github.com/kabro/accesscore/pkg/identity"
	"github.com/kabro/accesscore/pkg/orgs"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
	}{
		{"principal not found", identity.ErrNotFound, http.StatusNotFound},
		{"org not found", orgs.ErrOrgNotFound, http.StatusNotFound},
		{"delegation not found", delegation.ErrNotFound, http.StatusNotFound},
		{"email taken", identity.ErrEmailTaken, http.StatusConflict},
		{"already member", orgs.ErrAlreadyMember, http.StatusConflict},
		{"last owner", orgs.ErrLastOwner, http.StatusConflict},
		{"already terminal", delegation.ErrAlreadyTerminal, http.StatusConflict},
		{"invite expired", orgs.ErrInviteExpired, http.StatusGone},
		{"insufficient authority", delegation.ErrInsufficientAuthority, http.StatusForbidden},
		{"invalid role", orgs.ErrInvalidRole, http.StatusBadRequest},
		{"self delegation", delegation.ErrSelfDelegation, http.StatusBadRequest},
		{"invalid window", delegation.ErrInvalidWindow, http.StatusBadRequest},
		{"empty reason", delegation.ErrEmptyReason, http.StatusBadRequest},
		{"unknown error", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteDomainError(w, tt.err)
			assert.Equal(t, tt.expectCode, w.Code)
		})
	}
}

func TestWriteDomainErrorUnwrapsWrappedErrors(t *testing.T) {
	w := httptest.NewRecorder()

	WriteDomainError(w, fmt.Errorf("failed to add member: %w", orgs.ErrAlreadyMember))

	assert.Equal(t, http.StatusConflict, w.Code)
}
