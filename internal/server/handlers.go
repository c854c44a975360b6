package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/basakil/brm-chatbot/pkg/models"
	"github.com/basakil/brm-chatbot/utils"
)

// maxChatBodyBytes caps POST /chat bodies
const maxChatBodyBytes = 64 << 10

// chatHandler classifies the message, applies the simulated delay and writes the reply.
// Bodies that are not a JSON object with an optional string "message" are rejected with 400;
// a missing "message" is treated as an empty message.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	err := dec.Decode(&req)
	if err == nil {
		err = expectEOF(dec)
	}
	if err != nil {
		requestLogger(r, s.logger).Warn("Rejected chat request", "error", err)
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	reply := s.chat.Handle(r.Context(), req.Message)
	writeJSON(w, reply.Status, models.ChatResponse{Response: reply.Text})
}

// expectEOF rejects anything but whitespace after the first JSON value
func expectEOF(dec *json.Decoder) error {
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after request object")
		}
		return err
	}
	return nil
}

// statusHandler shows runtime information
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	fmt.Fprintf(w, "%s Status\n", s.info.Name)
	fmt.Fprintf(w, "================\n")
	fmt.Fprintf(w, "Version: %s\n", s.info.Version)
	fmt.Fprintf(w, "Model: %s\n", s.info.ModelVersion)
	fmt.Fprintf(w, "Instance: %s\n", s.info.InstanceID)
	fmt.Fprintf(w, "Status: %s\n", s.info.Status)
	utils.CollectRuntimeStatus(s.started).WriteTo(w)

	requestLogger(r, s.logger).Debug("Status endpoint accessed", "port", s.port)
}

// healthHandler reports liveness with version metadata
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:   s.info.Status,
		Version:  s.info.Version,
		Model:    s.info.ModelVersion,
		Instance: s.info.InstanceID,
		Host:     utils.GetHostname(),
		Time:     time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}
