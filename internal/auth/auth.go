// Package auth carries the acting user through the service layer and maps
// roles to the capabilities each operation checks.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Capability names one permission checked before an operation runs
type Capability string

const (
	ViewFamily      Capability = "view_family"
	EditMembers     Capability = "edit_members"
	DeleteMembers   Capability = "delete_members"
	RestoreMembers  Capability = "restore_members"
	ManageClans     Capability = "manage_clans"
	ManageMarriages Capability = "manage_marriages"
)

// Role is a named bundle of capabilities
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
	RoleViewer        Role = "viewer"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdministrator: {ViewFamily, EditMembers, DeleteMembers, RestoreMembers, ManageClans, ManageMarriages},
	RoleEditor:        {ViewFamily, EditMembers, ManageMarriages},
	RoleViewer:        {ViewFamily},
}

// ErrUnknownRole is returned for a role name with no capability set
var ErrUnknownRole = errors.New("unknown role")

// ParseRole resolves a role name case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleCapabilities[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Actor is the user an operation runs on behalf of
type Actor struct {
	ID           int64
	Role         Role
	Capabilities map[Capability]bool
}

// NewActor builds an actor holding the capabilities of role
func NewActor(id int64, role Role) Actor {
	caps := make(map[Capability]bool)
	for _, c := range roleCapabilities[role] {
		caps[c] = true
	}
	return Actor{ID: id, Role: role, Capabilities: caps}
}

// Can reports whether the actor holds capability c
func (a Actor) Can(c Capability) bool {
	return a.Capabilities[c]
}

// Clock supplies the time recorded in audit columns
type Clock func() time.Time

// UTC is the default clock
func UTC() time.Time {
	return time.Now().UTC()
}

type contextKey struct{}

// WithActor attaches an actor to ctx
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the actor attached to ctx, if any
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
