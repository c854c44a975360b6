package models

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /chat
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is returned for requests the service refuses to handle
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /healthz
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Model    string `json:"model"`
	Instance string `json:"instance"`
	Host     string `json:"host"`
	Time     string `json:"time"`
}

// AppInfo carries the version and status metadata shown on the home page,
// the health endpoint and the app_info metric.
type AppInfo struct {
	Name         string
	Version      string
	Status       string
	ModelVersion string
	InstanceID   string
}
