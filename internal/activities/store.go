package activities

import "context"

// Store owns the registry state. Implementations must make Signup and
// Unregister atomic with respect to each other: a failed call leaves the
// registry untouched and concurrent signups of one email admit exactly one.
type Store interface {
	List(ctx context.Context) (Registry, error)
	Signup(ctx context.Context, activity, email string) error
	Unregister(ctx context.Context, activity, email string) error
	Ping(ctx context.Context) error
}

// Options tune store behavior shared by all backends.
type Options struct {
	// EnforceCapacity rejects signups once MaxParticipants is reached.
	EnforceCapacity bool
}
