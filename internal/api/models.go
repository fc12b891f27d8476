// internal/api/models.go
package api

// StatusResponse is the body of the health and readiness probes.
type StatusResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
