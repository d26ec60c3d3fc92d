package auditstore

import "time"

// EventKind distinguishes the two things this audit log records.
type EventKind string

const (
	EventUXTransition      EventKind = "ux_transition"
	EventFocusAcquisition  EventKind = "focus_acquisition"
	EventFocusRelease      EventKind = "focus_release"
)

// Event is a single audited occurrence: a Dialog UX state transition or a
// Focus Manager channel acquisition/release.
type Event struct {
	ID        uint      `gorm:"primarykey"`
	Kind      EventKind `gorm:"index;not null"`
	Channel   string    `gorm:"index"`
	FromState string
	ToState   string
	Detail    string `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// AllModels lists every model AutoMigrate must create, mirroring the
// teacher's models.AllModels() convention.
func AllModels() []interface{} {
	return []interface{}{&Event{}}
}
