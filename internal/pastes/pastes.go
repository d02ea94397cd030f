package pastes

import (
	"errors"
	"io"
	"time"
)

// Sentinel errors for the upload lifecycle. Handlers branch on these with
// errors.Is to pick status codes.
var (
	// ErrNotFound is returned for an unknown id or a record whose backing
	// file is gone from disk.
	ErrNotFound = errors.New("paste not found")

	// ErrExpired is returned for a known id whose expiration has passed,
	// whether or not the reaper has removed it yet.
	ErrExpired = errors.New("paste expired")

	// ErrTooLarge is returned when the payload exceeds the configured limit.
	ErrTooLarge = errors.New("payload too large")

	// ErrDuplicateID is returned when a generated id collides with an
	// existing record.
	ErrDuplicateID = errors.New("duplicate paste id")

	// ErrNoPayload is returned when an upload carries neither text content
	// nor a file part.
	ErrNoPayload = errors.New("no payload provided")

	// ErrAmbiguousPayload is returned when an upload carries both text
	// content and a file part.
	ErrAmbiguousPayload = errors.New("both text content and file provided")
)

// Paste represents the metadata of one stored upload.
type Paste struct {
	ID          string     `json:"id"`
	StoredName  string     `json:"stored_name"`
	DisplayName string     `json:"display_name"`
	Extension   string     `json:"extension"`
	Size        int64      `json:"size"`
	ContentType string     `json:"content_type,omitempty"`
	IsText      bool       `json:"is_text"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the paste is logically gone at the given instant.
func (p *Paste) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}

// Repository defines the interface for paste metadata persistence.
type Repository interface {
	// Insert stores a new record; fails with ErrDuplicateID if the id exists.
	Insert(p *Paste) error

	// Get retrieves a record by id; fails with ErrNotFound.
	Get(id string) (*Paste, error)

	// ListExpired returns all records whose expiration is at or before now.
	ListExpired(now time.Time) ([]*Paste, error)

	// Delete removes a record by id; deleting a missing id is not an error.
	Delete(id string) error
}

// Storage defines the interface for the physical content storage.
type Storage interface {
	// Write creates the named file from the reader and returns its size.
	Write(storedName string, content io.Reader) (int64, error)

	// Open returns a reader for the named file; fails with ErrNotFound.
	Open(storedName string) (io.ReadCloser, error)

	// Delete removes the named file; absence is not an error.
	Delete(storedName string) error

	// Exists checks if the named file is present.
	Exists(storedName string) bool
}
