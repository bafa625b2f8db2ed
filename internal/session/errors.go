// ABOUTME: Error taxonomy for the session manager
// ABOUTME: Not-ready and delivery failures surfaced to the HTTP gateway

package session

import "errors"

// ErrNotReady is returned by Send while the session is not authenticated and connected.
var ErrNotReady = errors.New("client not ready or session inactive")

// ErrDelivery matches any *DeliveryError.
var ErrDelivery = errors.New("message delivery failed")

// DeliveryError carries the provider's failure for one send.
// Its message is the provider's message unchanged.
type DeliveryError struct {
	ChatID string
	Err    error
}

func (e *DeliveryError) Error() string { return e.Err.Error() }

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDelivery) hold for every DeliveryError.
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }
