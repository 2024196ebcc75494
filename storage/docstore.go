package storage

import "context"

// Event is a change notification for one document key.
type Event struct {
	Key     string
	Deleted bool
}

// Store is the remote sync backend: a per-user hierarchy of JSON documents
// addressed by slash-separated keys (users/{uid}/playlists/{pid}, ...).
// It is an eventually-consistent mirror of the local cache, never a
// correctness dependency for local reads.
type Store interface {
	// Get unmarshals the document at key into out, reporting whether it
	// exists.
	Get(ctx context.Context, key string, out interface{}) (bool, error)

	// SetMerge writes fields into the document at key, creating it if
	// absent and leaving unnamed fields untouched.
	SetMerge(ctx context.Context, key string, fields map[string]interface{}) error

	// Update writes fields into an existing document; it fails when the
	// document does not exist.
	Update(ctx context.Context, key string, fields map[string]interface{}) error

	// Delete removes the document at key. Deleting an absent document is
	// not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys of the direct children under prefix, excluding
	// nested descendants.
	List(ctx context.Context, prefix string) ([]string, error)

	// Listen emits change events for keys under prefix until ctx is
	// cancelled.
	Listen(ctx context.Context, prefix string) (<-chan Event, error)
}
