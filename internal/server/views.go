package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pavel-fokin/paste-stash/internal/pastes"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type viewData struct {
	ID          string
	DisplayName string
	IsText      bool
	Text        string
	Size        string
	ContentType string
	ExpiresAt   string
	RawURL      string
	DownloadURL string
}

type errorData struct {
	Status  int
	Message string
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index.html", nil)
}

func (h *handlers) renderTextView(w http.ResponseWriter, p *pastes.Paste, text string) {
	h.render(w, http.StatusOK, "view.html", viewDataFor(p, text))
}

func (h *handlers) renderBinaryView(w http.ResponseWriter, p *pastes.Paste) {
	h.render(w, http.StatusOK, "view.html", viewDataFor(p, ""))
}

func (h *handlers) renderError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	h.render(w, status, "error.html", errorData{
		Status:  status,
		Message: messageFor(err),
	})
}

func (h *handlers) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
	}
}

func viewDataFor(p *pastes.Paste, text string) viewData {
	data := viewData{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		IsText:      p.IsText,
		Text:        text,
		Size:        humanize.Bytes(uint64(p.Size)),
		ContentType: contentTypeFor(p),
		RawURL:      "/raw/" + p.ID,
		DownloadURL: "/download/" + p.ID,
	}
	if p.ExpiresAt != nil {
		data.ExpiresAt = p.ExpiresAt.Format(time.RFC1123)
	}
	return data
}
