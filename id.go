package agent

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// ID prefix constants for different entity types.
const (
	PrefixEvent = "evt"
	PrefixTool  = "tool"
	PrefixBatch = "batch"
)

// TimestampLayout is the fixed-width UTC layout of every event timestamp.
// Values sort lexically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// EventFactory generates event identifiers and timestamps.
type EventFactory struct {
	now func() time.Time
}

// NewEventFactory creates an EventFactory reading time from now.
// A nil now uses time.Now.
func NewEventFactory(now func() time.Time) *EventFactory {
	if now == nil {
		now = time.Now
	}
	return &EventFactory{now: now}
}

// NewEventID returns an identifier shared by all events of one logical task.
func (f *EventFactory) NewEventID() string {
	return generateID(PrefixEvent, f.now())
}

// NewToolCallID returns an identifier for one started/completed tool pair.
// UUIDv7 carries a millisecond timestamp plus random bits.
func (f *EventFactory) NewToolCallID() string {
	return PrefixTool + "_" + uuid.Must(uuid.NewV7()).String()
}

// Timestamp returns the current instant formatted with TimestampLayout.
func (f *EventFactory) Timestamp() string {
	return f.now().UTC().Format(TimestampLayout)
}

// generateID produces a unique identifier with the given prefix and embedded timestamp.
// Format: {prefix}_{YYYYMMDDTHHmmss}_{16 hex chars}  e.g. "evt_20260208T150405_a1b2c3d4e5f6a7b8"
func generateID(prefix string, t time.Time) string {
	ts := t.UTC().Format("20060102T150405")
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return prefix + "_" + ts + "_" + hex.EncodeToString(b)
}
