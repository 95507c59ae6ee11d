package service

import (
	"github.com/Ranjel272/POSBF/internal/apierror"
	"github.com/Ranjel272/POSBF/internal/model"

	"github.com/google/uuid"
)

// Identity is a verified caller. Role and names come from the stored account
// at verification time, not from the token.
type Identity struct {
	AccountID uuid.UUID
	FullName  string
	Username  *string
	Role      model.Role
}

func identityOf(a *model.Account) *Identity {
	return &Identity{AccountID: a.ID, FullName: a.FullName, Username: a.Username, Role: a.Role}
}

// HasRole reports whether the identity's role is one of roles.
func (i *Identity) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Authorize is the role gate: no identity is Unauthenticated, a role outside
// allowed is Forbidden. It never looks at the target resource.
func Authorize(id *Identity, allowed ...model.Role) error {
	if id == nil {
		return apierror.Unauthenticated("Authentication required")
	}
	if !id.HasRole(allowed...) {
		return apierror.Forbidden("Insufficient permissions")
	}
	return nil
}

func actorID(actor *Identity) *uuid.UUID {
	if actor == nil {
		return nil
	}
	id := actor.AccountID
	return &id
}
