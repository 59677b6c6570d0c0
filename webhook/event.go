package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/coursegate/coursegate"
)

// EventCheckoutCompleted is the only event type that grants access.
const EventCheckoutCompleted = "checkout.session.completed"

// Event is the provider's webhook envelope, decoded only as deep as the
// fields this system acts on.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData wraps the object the event describes.
type EventData struct {
	Object CheckoutSession `json:"object"`
}

// CheckoutSession carries the session identity and the user reference the
// caller attached when the session was created.
type CheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
}

// ParseEvent decodes a raw webhook payload into an Event. Only an
// unparseable body is an error; an event with unexpected or missing fields
// still decodes and is handled (acked) as irrelevant, so the provider does
// not redeliver it.
func ParseEvent(payload []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %v", coursegate.ErrMalformedEvent, err)
	}
	return evt, nil
}
