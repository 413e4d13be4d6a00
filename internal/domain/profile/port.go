package profile

import (
	"context"
	"errors"
)

// ErrNotFound distinguishes a missing actor profile from an empty endpoint
// list: without the actor the message text cannot be built at all.
var ErrNotFound = errors.New("profile not found")

type Repo interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
}
