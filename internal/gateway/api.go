// ABOUTME: HTTP API handlers for sending WhatsApp messages
// ABOUTME: POST /send plus liveness and readiness probes

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/session"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/supervise"
)

// maxRequestBody caps the /send body size.
const maxRequestBody = 1 << 20

// notReadyMessage is the 503 body text backends already match on.
const notReadyMessage = "Client not ready or session inactive."

// SendRequest is the JSON request body for POST /send.
type SendRequest struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

// SendResponse is the JSON response for a successful POST /send.
type SendResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string             `json:"status"`
	Phase     session.Phase      `json:"phase"`
	Panics    int                `json:"panics"`
	LastPanic *supervise.Failure `json:"last_panic,omitempty"`
}

// ReadyResponse is the JSON response for GET /health/ready.
type ReadyResponse struct {
	Ready     bool          `json:"ready"`
	Phase     session.Phase `json:"phase"`
	Identity  string        `json:"identity,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// handleSend handles POST /send.
//
// Readiness is checked first, so a send while the session is down is always
// a 503 and the provider is never called. The recipient is normalized by the
// session manager.
func (g *Gateway) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		g.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	logger := g.logger.With("request_id", uuid.New().String())

	if st := g.session.State(); !st.Ready() {
		logger.Warn("send rejected, client not ready", "phase", st.Phase)
		g.sendJSONError(w, http.StatusServiceUnavailable, notReadyMessage)
		return
	}

	req, err := parseSendRequest(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		logger.Warn("rejected /send request", "error", err)
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("incoming /send request", "number", req.Number, "message", truncate(req.Message, 80))

	err = g.session.Send(r.Context(), req.Number, req.Message)
	switch {
	case err == nil:
		logger.Info("message sent", "to", session.NormalizeRecipient(req.Number))
		g.sendJSON(w, http.StatusOK, SendResponse{Success: true})
	case errors.Is(err, session.ErrNotReady):
		// Session dropped between the readiness check and the send
		logger.Warn("send rejected, client not ready")
		g.sendJSONError(w, http.StatusServiceUnavailable, notReadyMessage)
	default:
		logger.Error("failed to send message", "number", req.Number, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleHealth reports liveness. It is 200 whenever the process can answer.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Phase:  g.session.State().Phase,
	}
	if g.supervisor != nil {
		resp.Panics = g.supervisor.Panics()
		resp.LastPanic = g.supervisor.LastFailure()
	}
	g.sendJSON(w, http.StatusOK, resp)
}

// handleReady returns 200 when the session can send, 503 otherwise.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	st := g.session.State()
	resp := ReadyResponse{
		Ready:     st.Ready(),
		Phase:     st.Phase,
		Identity:  st.Identity,
		LastError: st.LastError,
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	g.sendJSON(w, status, resp)
}

// sendJSON writes v as a JSON response with the given status.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, map[string]string{"error": message})
}

// parseSendRequest parses and validates a SendRequest from the given reader.
// Returns an error if the JSON is invalid or number or message is missing.
func parseSendRequest(r io.Reader) (*SendRequest, error) {
	var req SendRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}

	req.Number = strings.TrimSpace(req.Number)
	if req.Number == "" {
		return nil, errors.New("number is required")
	}

	if req.Message == "" {
		return nil, errors.New("message is required")
	}

	return &req, nil
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
