// Package domain holds the persisted records of the face gate.
package domain

import "time"

// EventKind distinguishes audit event types.
type EventKind string

const (
	EventRegister EventKind = "register"
	EventVerify   EventKind = "verify"
)

// RecognitionEvent is one audit-log row: the outcome of a registration or
// verification request. Events are written best-effort; the gate keeps
// serving if the audit database is down.
type RecognitionEvent struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind       EventKind `gorm:"type:text;not null;index:idx_events_kind" json:"kind"`
	VisitorID  string    `gorm:"type:text;index:idx_events_visitor" json:"visitor_id"`
	Matched    bool      `json:"matched"`
	Similarity float64   `json:"similarity"`
	FaceFound  bool      `json:"face_found"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_events_created" json:"created_at"`
}

// TableName sets the table name for GORM.
func (RecognitionEvent) TableName() string {
	return "recognition_events"
}
