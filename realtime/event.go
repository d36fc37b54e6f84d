package realtime

import (
	"time"

	"github.com/google/uuid"

	"salonpro-crm/models"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	// EventAll registers a callback for every event type.
	EventAll EventType = "*"
)

const (
	TableOrders = "orders"
	TableChat   = "chat_messages"
)

// ChangeEvent is one committed row change. Order events carry the row before
// (Old) and after (New) the write; chat events carry Message.
type ChangeEvent struct {
	Table    string              `json:"table"`
	Type     EventType           `json:"type"`
	SalonID  uuid.UUID           `json:"salonId"`
	New      *models.Order       `json:"new,omitempty"`
	Old      *models.Order       `json:"old,omitempty"`
	Message  *models.ChatMessage `json:"message,omitempty"`
	CommitTS time.Time           `json:"commitTs"`
}

// NewOrderEvent builds an orders event. At least one of old and new must be set.
func NewOrderEvent(typ EventType, old, new *models.Order) ChangeEvent {
	ev := ChangeEvent{Table: TableOrders, Type: typ, Old: old, New: new, CommitTS: time.Now().UTC()}
	switch {
	case new != nil:
		ev.SalonID = new.SalonID
	case old != nil:
		ev.SalonID = old.SalonID
	}
	return ev
}

func NewChatEvent(msg *models.ChatMessage) ChangeEvent {
	return ChangeEvent{
		Table:    TableChat,
		Type:     EventInsert,
		SalonID:  msg.SalonID,
		Message:  msg,
		CommitTS: time.Now().UTC(),
	}
}

// OrderID is the id of the order the event is about.
func (e ChangeEvent) OrderID() uuid.UUID {
	if e.New != nil {
		return e.New.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return uuid.Nil
}

func OrdersChannel(salonID uuid.UUID) string { return "orders:" + salonID.String() }

func ChatChannel(salonID uuid.UUID) string { return "chat:" + salonID.String() }
