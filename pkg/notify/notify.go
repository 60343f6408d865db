// Package notify delivers reservation notifications to an external broker.
// Every dispatcher is built explicitly and must be closed on shutdown.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindReservationCreated   Kind = "reservation_created"
	KindReservationConfirmed Kind = "reservation_confirmed"
	KindReservationRejected  Kind = "reservation_rejected"
)

type Audience string

const (
	AudienceCustomer    Audience = "customer"
	AudienceBranchStaff Audience = "branch_staff"
)

type Payload map[string]any

// Message is the envelope put on the wire.
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Audience  Audience  `json:"audience"`
	Recipient string    `json:"recipient"`
	Payload   Payload   `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newCustomerMessage(userID string, kind Kind, payload Payload) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		Audience:  AudienceCustomer,
		Recipient: userID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

func newBranchMessage(branch int, kind Kind, payload Payload) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		Audience:  AudienceBranchStaff,
		Recipient: fmt.Sprintf("%d", branch),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// RoutingKey addresses the message, e.g. customer.123456 or branch_staff.1.
func (m Message) RoutingKey() string {
	return string(m.Audience) + "." + m.Recipient
}

func (m Message) encode() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s notification: %w", m.Kind, err)
	}
	return body, nil
}
