package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

// GradeQueryService serves read-only aggregate projections over the
// grade records.
type GradeQueryService struct {
	ledger *Ledger
	cache  *CacheService
	logger *zap.Logger
}

// NewGradeQueryService constructs the query service. cache may be nil.
func NewGradeQueryService(ledger *Ledger, cache *CacheService, logger *zap.Logger) *GradeQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeQueryService{ledger: ledger, cache: cache, logger: logger}
}

// GetGradesByStatus scans every record id in ascending order.
func (s *GradeQueryService) GetGradesByStatus(status models.GradeStatus) ([]uint64, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade status")
	}
	out := make([]uint64, 0)
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		for _, id := range st.Grades.IDs() {
			rec, _ := st.Grades.Get(id)
			if rec.Status == status {
				out = append(out, id)
			}
		}
		return nil
	})
	return out, nil
}

// TotalGrades returns the number of records ever created.
func (s *GradeQueryService) TotalGrades() int {
	var n int
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		n = st.Grades.Count()
		return nil
	})
	return n
}

// Stats counts records per status and reports whether the cache served
// it. Results are cached per ledger sequence, so a cached entry always
// describes the state it was computed from.
func (s *GradeQueryService) Stats(ctx context.Context) (models.GradeStats, bool) {
	seq := s.ledger.Sequence()
	key := statsCacheKey(seq)
	var cached models.GradeStats
	if s.cache.Get(ctx, key, &cached) {
		return cached, true
	}

	var stats models.GradeStats
	_ = s.ledger.Read(func(st *repository.LedgerState) error {
		stats = computeStats(st)
		return nil
	})
	if stats.LastSequence == seq {
		s.cache.Set(ctx, key, stats, 0)
	}
	return stats, false
}

func statsCacheKey(seq uint64) string {
	return fmt.Sprintf("grades:stats:%d", seq)
}

func computeStats(st *repository.LedgerState) models.GradeStats {
	stats := models.GradeStats{LastSequence: st.Sequence()}
	for _, id := range st.Grades.IDs() {
		rec, _ := st.Grades.Get(id)
		stats.Total++
		switch rec.Status {
		case models.GradeStatusPending:
			stats.Pending++
		case models.GradeStatusDepartmentVerified:
			stats.DepartmentVerified++
		case models.GradeStatusDirectorApproved:
			stats.DirectorApproved++
		case models.GradeStatusFinalized:
			stats.Finalized++
		}
	}
	return stats
}
