package bus

import "time"

// Event kinds published by the watcher.
const (
	KindStatusChanged  = "watch.status_changed"
	KindTick           = "watch.tick"
	KindChangeDetected = "watch.change_detected"
	KindTargetSkipped  = "watch.target_skipped"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// ChangeDetected is the payload of KindChangeDetected.
type ChangeDetected struct {
	ID       string // unique per detection, also written to the daemon log
	Target   string
	StaleIDs []int64
	FreshIDs []int64
}

// Tick is the payload of KindTick.
type Tick struct {
	N       uint64
	Targets int
	Changes int
}
