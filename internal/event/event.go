// Package event decouples domain mutations from real-time broadcast. Core
// operations return the events their mutation produced; the caller hands them
// to a Publisher only after the surrounding transaction has committed, so a
// broadcast never describes state that was rolled back.
package event

import (
	"context"

	"github.com/rs/zerolog"
)

// Event describes a committed change to a domain entity.
type Event struct {
	Topic      string
	Type       string
	EntityType string
	EntityID   string
	Data       interface{}
}

// Topics and event types emitted by the domain services.
const (
	TopicRooms        = "rooms"
	TopicPatients     = "patients"
	TopicBills        = "bills"
	TopicAppointments = "appointments"

	TypeRoomCreated        = "room_created"
	TypeRoomUpdated        = "room_updated"
	TypeRoomDeleted        = "room_deleted"
	TypePatientAdded       = "patient_added"
	TypePatientUpdated     = "patient_updated"
	TypePatientDischarged  = "patient_discharged"
	TypePatientDeleted     = "patient_deleted"
	TypeBillUpdated        = "bill_updated"
	TypeAppointmentUpdated = "appointment_updated"
)

// Sink receives published events. The websocket hub is the production sink.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Publisher drains domain events into a sink. Publication is fire-and-forget:
// a sink failure is logged and never surfaces to the caller, because the
// state change it describes has already committed.
type Publisher struct {
	sink   Sink
	logger zerolog.Logger
}

func NewPublisher(sink Sink, logger zerolog.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logger}
}

// PublishAll publishes each event in order.
func (p *Publisher) PublishAll(ctx context.Context, events []Event) {
	if p == nil || p.sink == nil {
		return
	}
	for _, e := range events {
		if err := p.sink.Publish(ctx, e); err != nil {
			p.logger.Warn().Err(err).
				Str("type", e.Type).
				Str("topic", e.Topic).
				Str("entity_id", e.EntityID).
				Msg("event publish failed")
		}
	}
}
