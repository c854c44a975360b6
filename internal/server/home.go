package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/home.html
var templateFS embed.FS

var homeTemplate = template.Must(template.ParseFS(templateFS, "templates/home.html"))

type homeView struct {
	Name         string
	Version      string
	Status       string
	ModelVersion string
	InstanceID   string
	Healthy      bool
	MetricsPath  string
}

// homeHandler renders the informational dashboard page
func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	view := homeView{
		Name:         s.info.Name,
		Version:      s.info.Version,
		Status:       s.info.Status,
		ModelVersion: s.info.ModelVersion,
		InstanceID:   s.info.InstanceID,
		Healthy:      s.info.Status == "Healthy",
	}
	if s.metrics != nil {
		view.MetricsPath = "/metrics"
	}

	var buf bytes.Buffer
	if err := homeTemplate.Execute(&buf, view); err != nil {
		requestLogger(r, s.logger).Error("Failed to render home page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
