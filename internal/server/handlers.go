package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavel-fokin/paste-stash/internal/pastes"
)

type handlers struct {
	service *pastes.Service
	maxSize int64
}

// apiUpload handles POST /api/upload: a multipart file part plus optional
// custom_name, expires and expires_hours fields. Responds with JSON.
func (h *handlers) apiUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		h.jsonError(w, uploadParseError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.jsonError(w, pastes.ErrNoPayload)
		return
	}
	defer file.Close()

	name := r.FormValue("custom_name")
	if name == "" {
		name = header.Filename
	}

	result, err := h.service.Upload(&pastes.UploadRequest{
		Content:     file,
		DisplayName: name,
		ContentType: header.Header.Get("Content-Type"),
		Expiry:      pastes.ParseExpiryHint(r.FormValue("expires"), r.FormValue("expires_hours")),
	})
	if err != nil {
		slog.Error("Upload failed", "error", err, "filename", header.Filename)
		h.jsonError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// formUpload handles POST /upload from the browser form: either a text
// content field or a file part, never both. Redirects to the view page.
func (h *handlers) formUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		h.renderError(w, uploadParseError(err))
		return
	}

	content := r.FormValue("content")
	file, header, fileErr := r.FormFile("file")
	hasFile := fileErr == nil
	if hasFile {
		defer file.Close()
	}

	// A request carrying both payloads is rejected outright rather than
	// silently preferring one of them.
	if content != "" && hasFile {
		h.renderError(w, pastes.ErrAmbiguousPayload)
		return
	}

	req := &pastes.UploadRequest{
		DisplayName: r.FormValue("custom_name"),
		Expiry:      pastes.ParseExpiryHint(r.FormValue("expires"), r.FormValue("expires_hours")),
	}
	switch {
	case content != "":
		req.Content = strings.NewReader(content)
		req.ContentType = "text/plain; charset=utf-8"
		req.Pasted = true
	case hasFile:
		req.Content = file
		req.ContentType = header.Header.Get("Content-Type")
		if req.DisplayName == "" {
			req.DisplayName = header.Filename
		}
	default:
		h.renderError(w, pastes.ErrNoPayload)
		return
	}

	result, err := h.service.Upload(req)
	if err != nil {
		slog.Error("Upload failed", "error", err)
		h.renderError(w, err)
		return
	}

	http.Redirect(w, r, result.URL, http.StatusSeeOther)
}

// viewPaste handles GET /f/{id}: text inline, or a file-info page for binary
// content.
func (h *handlers) viewPaste(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	paste, err := h.service.Resolve(id)
	if err != nil {
		h.renderError(w, err)
		return
	}

	if !paste.IsText {
		h.renderBinaryView(w, paste)
		return
	}

	content, err := h.service.Open(paste)
	if err != nil {
		h.renderError(w, err)
		return
	}
	defer content.Close()

	text, err := io.ReadAll(content)
	if err != nil {
		slog.Error("Failed to read content", "error", err, "paste_id", id)
		h.renderError(w, err)
		return
	}

	h.renderTextView(w, paste, string(text))
}

// rawPaste handles GET /raw/{id}: the stored bytes, inline disposition.
func (h *handlers) rawPaste(w http.ResponseWriter, r *http.Request) {
	h.serveContent(w, r, "inline")
}

// downloadPaste handles GET /download/{id}: the stored bytes, forced
// attachment disposition.
func (h *handlers) downloadPaste(w http.ResponseWriter, r *http.Request) {
	h.serveContent(w, r, "attachment")
}

func (h *handlers) serveContent(w http.ResponseWriter, r *http.Request, disposition string) {
	id := chi.URLParam(r, "id")

	paste, err := h.service.Resolve(id)
	if err != nil {
		h.jsonError(w, err)
		return
	}

	content, err := h.service.Open(paste)
	if err != nil {
		slog.Error("Failed to open content", "error", err, "paste_id", id)
		h.jsonError(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", contentTypeFor(paste))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("%s; filename=%q", disposition, paste.DisplayName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", paste.Size))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if _, err := io.Copy(w, content); err != nil {
		slog.Error("Failed to stream content", "error", err, "paste_id", id)
	}
}

// contentTypeFor picks the MIME type for raw serving: the stored type if the
// client declared one, otherwise inferred from the extension, otherwise a
// mode-appropriate default.
func contentTypeFor(p *pastes.Paste) string {
	if p.ContentType != "" {
		return p.ContentType
	}
	if mt := mime.TypeByExtension(p.Extension); mt != "" {
		return mt
	}
	if p.IsText {
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}

// statusFor maps service errors to HTTP status codes. Expired is distinct
// from NotFound so clients can tell "it existed and is gone" from "it never
// existed".
func statusFor(err error) int {
	switch {
	case errors.Is(err, pastes.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pastes.ErrExpired):
		return http.StatusGone
	case errors.Is(err, pastes.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pastes.ErrNoPayload), errors.Is(err, pastes.ErrAmbiguousPayload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the user-visible message for an error. Internal details
// stay in the logs.
func messageFor(err error) string {
	switch {
	case errors.Is(err, pastes.ErrNotFound):
		return "Paste not found."
	case errors.Is(err, pastes.ErrExpired):
		return "This paste has expired."
	case errors.Is(err, pastes.ErrTooLarge):
		return "The payload exceeds the upload size limit."
	case errors.Is(err, pastes.ErrNoPayload):
		return "No text content or file was provided."
	case errors.Is(err, pastes.ErrAmbiguousPayload):
		return "Provide either text content or a file, not both."
	default:
		return "Internal server error."
	}
}

// uploadParseError normalizes multipart parse failures: an exceeded body cap
// reads as a too-large payload, anything else as a missing one.
func uploadParseError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return pastes.ErrTooLarge
	}
	return pastes.ErrNoPayload
}

func (h *handlers) jsonError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(map[string]string{"error": messageFor(err)})
}
