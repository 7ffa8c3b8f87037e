// Package session supplies the identity of the signed-in user. The pipeline
// performs no authentication of its own; it only asks an external session
// collaborator who the current user is.
package session

import (
	"context"
	"errors"
)

// ErrNoUser is returned when nobody is signed in. The dispatcher treats it
// as a terminal no-op for the invocation, not as a failure.
var ErrNoUser = errors.New("no signed-in user")

// UserResolver resolves the user on whose behalf captured transactions are
// committed.
type UserResolver interface {
	// CurrentUser returns the signed-in user's ID, or ErrNoUser.
	CurrentUser(ctx context.Context) (string, error)
}

// StaticResolver is a UserResolver backed by a fixed user ID, typically from
// configuration. An empty ID means no user is signed in.
type StaticResolver struct {
	userID string
}

// NewStaticResolver creates a resolver that always answers with userID.
func NewStaticResolver(userID string) *StaticResolver {
	return &StaticResolver{userID: userID}
}

// CurrentUser implements the UserResolver interface.
func (r *StaticResolver) CurrentUser(ctx context.Context) (string, error) {
	if r.userID == "" {
		return "", ErrNoUser
	}
	return r.userID, nil
}

var _ UserResolver = (*StaticResolver)(nil)
