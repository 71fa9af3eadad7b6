package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// EventType names a committed ledger event.
type EventType string

const (
	EventRoleAssigned     EventType = "ROLE_ASSIGNED"
	EventRoleRevoked      EventType = "ROLE_REVOKED"
	EventCourseRegistered EventType = "COURSE_REGISTERED"
	EventGradeCreated     EventType = "GRADE_CREATED"
	EventGradeVerified    EventType = "GRADE_VERIFIED"
	EventGradeRatified    EventType = "GRADE_RATIFIED"
	EventGradeFinalized   EventType = "GRADE_FINALIZED"
	EventAccessGranted    EventType = "ACCESS_GRANTED"
	EventAccessRevoked    EventType = "ACCESS_REVOKED"
)

// Event is one journaled, ordered effect of a commit. Replaying the
// journal in sequence order rebuilds the full ledger state.
type Event struct {
	Seq        uint64         `db:"seq" json:"seq"`
	ID         string         `db:"id" json:"id"`
	Type       EventType      `db:"type" json:"type"`
	Actor      string         `db:"actor" json:"actor"`
	Payload    types.JSONText `db:"payload" json:"payload"`
	OccurredAt time.Time      `db:"occurred_at" json:"occurredAt"`
}

// NewEvent encodes payload into an unsequenced event.
func NewEvent(eventType EventType, actor string, at time.Time, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Actor: actor, Payload: types.JSONText(raw), OccurredAt: at}, nil
}

// Decode unmarshals the payload into dest.
func (e Event) Decode(dest interface{}) error {
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// RoleAssignedPayload is carried by ROLE_ASSIGNED.
type RoleAssignedPayload struct {
	Identity     string `json:"identity"`
	Role         Role   `json:"role"`
	PreviousRole Role   `json:"previousRole"`
}

// RoleRevokedPayload is carried by ROLE_REVOKED.
type RoleRevokedPayload struct {
	Identity     string `json:"identity"`
	PreviousRole Role   `json:"previousRole"`
}

// CourseRegisteredPayload is carried by COURSE_REGISTERED.
type CourseRegisteredPayload struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Updated bool   `json:"updated"`
}

// GradeCreatedPayload is carried by GRADE_CREATED.
type GradeCreatedPayload struct {
	Record GradeRecord `json:"record"`
}

// GradeSignedPayload is carried by GRADE_VERIFIED and GRADE_RATIFIED.
type GradeSignedPayload struct {
	ID     uint64    `json:"id"`
	Signer string    `json:"signer"`
	Token  string    `json:"token"`
	At     time.Time `json:"at"`
}

// GradeFinalizedPayload is carried by GRADE_FINALIZED.
type GradeFinalizedPayload struct {
	ID         uint64    `json:"id"`
	Student    string    `json:"student"`
	CourseCode string    `json:"courseCode"`
	Grade      int       `json:"grade"`
	At         time.Time `json:"at"`
}

// AccessPayload is carried by ACCESS_GRANTED and ACCESS_REVOKED.
type AccessPayload struct {
	Student string `json:"student"`
	Viewer  string `json:"viewer"`
}

// EventFilter scopes journal tail queries.
type EventFilter struct {
	AfterSeq uint64
	Limit    int
}

// JournalReport summarises an offline replay of the journal.
type JournalReport struct {
	Events         int      `json:"events"`
	Sequence       uint64   `json:"sequence"`
	Records        int      `json:"records"`
	Finalized      int      `json:"finalized"`
	Roles          int      `json:"roles"`
	Courses        int      `json:"courses"`
	InvalidRecords []uint64 `json:"invalidRecords"`
}
