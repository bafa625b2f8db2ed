// ABOUTME: Session state value object owned by the manager
// ABOUTME: Phase, identity and last recovery error, exposed through Manager.State

package session

import "time"

// Phase is one step of the session lifecycle.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseAwaitingLogin Phase = "awaiting_login"
	PhaseReady         Phase = "ready"
	PhaseDisconnected  Phase = "disconnected"
	PhaseAuthFailed    Phase = "auth_failed"
)

// State is a snapshot of the session. Values are copies; mutating one has
// no effect on the Manager.
type State struct {
	Phase Phase `json:"phase"`
	// Identity is the provider-assigned account id once authenticated.
	Identity string `json:"identity,omitempty"`
	// QRCode is the latest login code while awaiting login.
	QRCode    string    `json:"-"`
	Since     time.Time `json:"since"`
	LastError string    `json:"last_error,omitempty"`
}

// Ready reports whether a send may be attempted.
func (s State) Ready() bool {
	return s.Phase == PhaseReady && s.Identity != ""
}
