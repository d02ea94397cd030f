package pastes

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Service provides application-level paste operations: the upload
// orchestration and the read-side resolution.
type Service struct {
	storage Storage
	repo    Repository
	policy  ExpiryPolicy
	maxSize int64
	now     func() time.Time
}

// NewService creates a new paste service.
func NewService(storage Storage, repo Repository, policy ExpiryPolicy, maxSize int64) *Service {
	return &Service{
		storage: storage,
		repo:    repo,
		policy:  policy,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// UploadRequest represents one incoming payload.
type UploadRequest struct {
	// Content is the payload stream; required.
	Content io.Reader
	// DisplayName is the custom name or original filename; may be empty.
	DisplayName string
	// ContentType is the declared MIME type; may be empty.
	ContentType string
	// Pasted marks content that came from a text field rather than a file
	// part. Pasted content is always rendered as text.
	Pasted bool
	// Expiry is the parsed client expiration hint.
	Expiry ExpiryHint
}

// UploadResult represents the outcome of a successful upload.
type UploadResult struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	RawURL      string     `json:"raw_url"`
	DownloadURL string     `json:"download_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Upload stores a payload and its metadata as one logical unit. The record is
// only reported created when both the content write and the metadata insert
// succeed; a failed insert removes the just-written file.
func (s *Service) Upload(req *UploadRequest) (*UploadResult, error) {
	if req.Content == nil {
		return nil, ErrNoPayload
	}

	now := s.now()
	id := NewID()

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		if !req.Pasted {
			return nil, ErrNoPayload
		}
		displayName = id + ".txt"
	}
	ext := strings.ToLower(path.Ext(displayName))
	storedName := id + ext

	paste := &Paste{
		ID:          id,
		StoredName:  storedName,
		DisplayName: displayName,
		Extension:   ext,
		ContentType: req.ContentType,
		IsText:      req.Pasted || isTextContent(req.ContentType, ext),
		CreatedAt:   now,
		ExpiresAt:   ComputeExpiry(req.Expiry, now, s.policy),
	}

	// The size limit is enforced during the write: reading one byte past the
	// limit aborts the upload and removes the partial file, so an oversized
	// payload never lingers on disk.
	size, err := s.storage.Write(storedName, io.LimitReader(req.Content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to write content: %w", err)
	}
	if size > s.maxSize {
		s.storage.Delete(storedName)
		return nil, ErrTooLarge
	}
	paste.Size = size

	if err := s.repo.Insert(paste); err != nil {
		// Clean up the orphaned file before surfacing the error.
		s.storage.Delete(storedName)
		return nil, fmt.Errorf("failed to save paste metadata: %w", err)
	}

	return &UploadResult{
		ID:          id,
		URL:         "/f/" + id,
		RawURL:      "/raw/" + id,
		DownloadURL: "/download/" + id,
		ExpiresAt:   paste.ExpiresAt,
	}, nil
}

// Resolve looks up a live paste by id. Expiry is checked logically at read
// time, so a record the reaper has not visited yet still reads as expired.
// Metadata whose backing file is missing from disk reads as not found.
func (s *Service) Resolve(id string) (*Paste, error) {
	paste, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if paste.Expired(s.now()) {
		return nil, ErrExpired
	}
	if !s.storage.Exists(paste.StoredName) {
		return nil, ErrNotFound
	}
	return paste, nil
}

// Open returns the content stream for a resolved paste.
func (s *Service) Open(p *Paste) (io.ReadCloser, error) {
	return s.storage.Open(p.StoredName)
}

// textExtensions lists file extensions rendered inline as text even when the
// client declared no usable MIME type.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".log": true, ".csv": true,
	".json": true, ".xml": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".conf": true, ".sh": true, ".sql": true, ".diff": true,
	".patch": true, ".go": true, ".py": true, ".rb": true, ".rs": true,
	".c": true, ".h": true, ".cpp": true, ".js": true, ".ts": true,
	".css": true, ".html": true, ".htm": true,
}

// isTextContent decides whether content is rendered inline as text or offered
// as a binary download. The classification only picks the view mode; it is
// not a security boundary.
func isTextContent(contentType, ext string) bool {
	mt, _, _ := strings.Cut(contentType, ";")
	mt = strings.TrimSpace(strings.ToLower(mt))
	if strings.HasPrefix(mt, "text/") {
		return true
	}
	switch mt {
	case "application/json", "application/xml", "application/javascript",
		"application/x-sh", "application/x-yaml":
		return true
	}
	return textExtensions[ext]
}
