package domain

import (
	"context"
	"strings"
)

// Role represents an actor's access level. It is a closed set: code that
// branches on a Role switches over RoleAdmin and RoleUser and treats anything
// else as ErrUnknownRole.
type Role string

const (
	// RoleAdmin sees every entry and resolves pending submissions.
	RoleAdmin Role = "ADMIN"

	// RoleUser sees and edits only its own entries. Its submissions start PENDING.
	RoleUser Role = "USER"
)

// ParseRole parses the persisted form of a role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", ErrInvalidRole
	}
}

// IsValid reports whether r is one of the two known roles.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Group is the partition ("panel") a USER actor belongs to.
type Group struct {
	ID   string
	Name string
}

// Actor is the identity performing an operation. Actors are managed by an
// external collaborator; this package only reads them.
type Actor struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Role      Role
	Group     *Group
}

// DisplayName returns "First Last", or an empty string when both are unset.
func (a *Actor) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// RequireAdmin fails with ErrAdminRequired unless actor has RoleAdmin.
func RequireAdmin(actor *Actor) error {
	if actor == nil {
		return ErrMissingActor
	}

	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleUser:
		return ErrAdminRequired
	default:
		return ErrUnknownRole
	}
}

type actorContextKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(*Actor)
	return actor, ok && actor != nil
}
