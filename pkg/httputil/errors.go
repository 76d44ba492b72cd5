package httputil

import (
	"errors"
	"net/http"

	"github.com/kabro/accesscore/pkg/delegation"
	"github.com/kabro/accesscore/pkg/identity"
	"github.com/kabro/accesscore/pkg/orgs"
)

// WriteDomainError maps a domain error onto an HTTP status code and writes
// the JSON error response. Unknown errors become 500s.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrNotFound),
		errors.Is(err, orgs.ErrOrgNotFound),
		errors.Is(err, orgs.ErrMembershipNotFound),
		errors.Is(err, orgs.ErrInviteNotFound),
		errors.Is(err, delegation.ErrNotFound):
		WriteNotFoundError(w, err.Error())

	case errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrAlreadyFrozen),
		errors.Is(err, identity.ErrNotFrozen),
		errors.Is(err, orgs.ErrAlreadyMember),
		errors.Is(err, orgs.ErrInviteAccepted),
		errors.Is(err, delegation.ErrAlreadyTerminal),
		errors.Is(err, orgs.ErrLastOwner):
		WriteConflict(w, err.Error())

	case errors.Is(err, orgs.ErrInviteExpired):
		WriteErrorMessage(w, http.StatusGone, err.Error())

	case errors.Is(err, delegation.ErrInsufficientAuthority):
		WriteForbidden(w, err.Error())

	case errors.Is(err, identity.ErrInvalidRole),
		errors.Is(err, orgs.ErrInvalidRole),
		errors.Is(err, delegation.ErrInvalidWindow),
		errors.Is(err, delegation.ErrInvalidPermission),
		errors.Is(err, delegation.ErrEmptyPermissions),
		errors.Is(err, delegation.ErrEmptyReason),
		errors.Is(err, delegation.ErrSelfDelegation):
		WriteBadRequest(w, err.Error())

	default:
		WriteInternalError(w, err)
	}
}
