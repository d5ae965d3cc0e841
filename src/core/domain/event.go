package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a kind of domain event. The set is closed: every type
// listed in EventTypes has exactly one payload struct.
type EventType string

const (
	EventRoomCreated      EventType = "RoomCreated"
	EventPlayerJoinedRoom EventType = "PlayerJoinedRoom"
	EventPlayerLeftRoom   EventType = "PlayerLeftRoom"
	EventGameStarted      EventType = "GameStarted"
	EventCardDealt        EventType = "CardDealt"
	EventCardPlayed       EventType = "CardPlayed"
	EventCardDrawn        EventType = "CardDrawn"
	EventHandsCompleted   EventType = "HandsCompleted"
	EventGameEnded        EventType = "GameEnded"
)

// EventTypes lists every event kind.
func EventTypes() []EventType {
	return []EventType{
		EventRoomCreated,
		EventPlayerJoinedRoom,
		EventPlayerLeftRoom,
		EventGameStarted,
		EventCardDealt,
		EventCardPlayed,
		EventCardDrawn,
		EventHandsCompleted,
		EventGameEnded,
	}
}

// EventData is implemented only by the payload structs in this package.
type EventData interface {
	EventType() EventType
	gameEvent()
}

// Event is an immutable record of something that happened to a game.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	OccurredOn time.Time
	Data       EventData
}

// NewEvent stamps data with a fresh id and the given time.
func NewEvent(data EventData, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       data.EventType(),
		OccurredOn: at,
		Data:       data,
	}
}

// EncodeData serializes the payload for storage.
func EncodeData(e Event) ([]byte, error) {
	b, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type, err)
	}
	return b, nil
}

// DecodeEvent rebuilds an event from its stored parts.
func DecodeEvent(id uuid.UUID, typ EventType, data []byte, occurredOn time.Time) (Event, error) {
	payload, err := newPayload(typ)
	if err != nil {
		return Event{}, err
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return Event{}, fmt.Errorf("decode %s: %w", typ, err)
	}
	return Event{
		ID:         id,
		Type:       typ,
		OccurredOn: occurredOn,
		Data:       deref(payload),
	}, nil
}

func newPayload(typ EventType) (any, error) {
	switch typ {
	case EventRoomCreated:
		return &RoomCreated{}, nil
	case EventPlayerJoinedRoom:
		return &PlayerJoinedRoom{}, nil
	case EventPlayerLeftRoom:
		return &PlayerLeftRoom{}, nil
	case EventGameStarted:
		return &GameStarted{}, nil
	case EventCardDealt:
		return &CardDealt{}, nil
	case EventCardPlayed:
		return &CardPlayed{}, nil
	case EventCardDrawn:
		return &CardDrawn{}, nil
	case EventHandsCompleted:
		return &HandsCompleted{}, nil
	case EventGameEnded:
		return &GameEnded{}, nil
	default:
		return nil, NewError(ErrUnknownEventType, "%q", typ)
	}
}

func deref(p any) EventData {
	switch v := p.(type) {
	case *RoomCreated:
		return *v
	case *PlayerJoinedRoom:
		return *v
	case *PlayerLeftRoom:
		return *v
	case *GameStarted:
		return *v
	case *CardDealt:
		return *v
	case *CardPlayed:
		return *v
	case *CardDrawn:
		return *v
	case *HandsCompleted:
		return *v
	case *GameEnded:
		return *v
	default:
		panic(fmt.Sprintf("domain: unexpected payload %T", p))
	}
}
