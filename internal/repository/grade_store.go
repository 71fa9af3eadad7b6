package repository

import (
	"time"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

// GradeStage selects which signature slot a transition fills.
type GradeStage int

const (
	StageDepartment GradeStage = iota + 1
	StageDirector
)

// TransitionParams describes a compare-and-set status change.
type TransitionParams struct {
	ID        uint64
	From      models.GradeStatus
	To        models.GradeStatus
	Stage     GradeStage
	Signature models.Signature
	At        time.Time
}

// GradeStore owns every grade record and the per-student creation index.
// Ids start at 1 and are never reused.
type GradeStore struct {
	records   map[uint64]*models.GradeRecord
	byStudent map[string][]uint64
	nextID    uint64
}

// NewGradeStore constructs an empty store.
func NewGradeStore() *GradeStore {
	return &GradeStore{
		records:   make(map[uint64]*models.GradeRecord),
		byStudent: make(map[string][]uint64),
		nextID:    1,
	}
}

// NextID returns the id the next inserted record must carry.
func (s *GradeStore) NextID() uint64 {
	return s.nextID
}

// Count returns the number of records.
func (s *GradeStore) Count() int {
	return len(s.records)
}

// Get returns a copy of the record.
func (s *GradeStore) Get(id uint64) (models.GradeRecord, bool) {
	rec, ok := s.records[id]
	if !ok {
		return models.GradeRecord{}, false
	}
	return cloneRecord(rec), true
}

// Insert stores a new record; its id must equal NextID.
func (s *GradeStore) Insert(rec models.GradeRecord) error {
	if rec.ID != s.nextID {
		return ErrRecordOutOfOrder
	}
	stored := cloneRecord(&rec)
	s.records[rec.ID] = &stored
	s.byStudent[rec.Student] = append(s.byStudent[rec.Student], rec.ID)
	s.nextID++
	return nil
}

// Transition moves a record from params.From to params.To, filling the
// stage's signature slot. It fails with ErrStatusConflict when the record
// is no longer in params.From.
func (s *GradeStore) Transition(params TransitionParams) error {
	rec, ok := s.records[params.ID]
	if !ok {
		return ErrRecordMissing
	}
	if rec.Status != params.From {
		return ErrStatusConflict
	}
	switch params.Stage {
	case StageDepartment:
		rec.Department = params.Signature
	case StageDirector:
		rec.Director = params.Signature
	}
	rec.Status = params.To
	rec.UpdatedAt = params.At
	if params.To == models.GradeStatusFinalized {
		at := params.At
		rec.FinalizedAt = &at
	}
	return nil
}

// IDs returns every record id in ascending order.
func (s *GradeStore) IDs() []uint64 {
	ids := make([]uint64, 0, len(s.records))
	for id := uint64(1); id < s.nextID; id++ {
		if _, ok := s.records[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// IDsByStudent returns the student's record ids in creation order.
func (s *GradeStore) IDsByStudent(student string) []uint64 {
	ids := s.byStudent[student]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

func cloneRecord(rec *models.GradeRecord) models.GradeRecord {
	out := *rec
	if rec.FinalizedAt != nil {
		at := *rec.FinalizedAt
		out.FinalizedAt = &at
	}
	return out
}
