package repository

import "errors"

// Sentinel errors raised by the in-memory ledger stores and journals.
var (
	ErrTokenUsed        = errors.New("integrity token already used")
	ErrAccessExists     = errors.New("access already granted")
	ErrAccessMissing    = errors.New("access not granted")
	ErrRecordMissing    = errors.New("grade record not found")
	ErrRecordOutOfOrder = errors.New("grade record id out of order")
	ErrStatusConflict   = errors.New("grade record status changed")
	ErrSequenceConflict = errors.New("event sequence conflict")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidRecord    = errors.New("grade record payload is inconsistent")
)
