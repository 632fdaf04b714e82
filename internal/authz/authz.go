// Package authz answers role questions for authenticated users. Roles are
// always read from the database, never trusted from token claims.
package authz

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Authorizer resolves whether a user holds the admin role.
type Authorizer interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// RequireAdmin returns FORBIDDEN unless actorID is an admin.
func RequireAdmin(ctx context.Context, a Authorizer, actorID int64) error {
	ok, err := a.IsAdmin(ctx, actorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve role")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

// RequireSelfOrAdmin lets a user act on their own resources; anyone else must be admin.
func RequireSelfOrAdmin(ctx context.Context, a Authorizer, actorID, ownerID int64) error {
	if actorID > 0 && actorID == ownerID {
		return nil
	}
	ok, err := a.IsAdmin(ctx, actorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve role")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access to another user's resources is not allowed")
	}
	return nil
}
