package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/repository"
)

const (
	authority = "0xauthority"
	teacher   = "0xteacher"
	student   = "0xstudent"
	head      = "0xhead"
	head2     = "0xhead2"
	director  = "0xdirector"
	director2 = "0xdirector2"
	viewer    = "0xviewer"
)

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.Event
}

func (d *recordingDispatcher) Dispatch(events []models.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
}

func (d *recordingDispatcher) types() []models.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.EventType, 0, len(d.events))
	for _, evt := range d.events {
		out = append(out, evt.Type)
	}
	return out
}

type ledgerFixture struct {
	ledger     *Ledger
	journal    *repository.MemoryJournal
	dispatcher *recordingDispatcher
	roles      *RoleService
	courses    *CourseService
	access     *AccessService
	grades     *GradeWorkflowService
	queries    *GradeQueryService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	return newLedgerFixtureWithJournal(t, repository.NewMemoryJournal())
}

func newLedgerFixtureWithJournal(t *testing.T, journal *repository.MemoryJournal) *ledgerFixture {
	t.Helper()
	clock := &steppingClock{now: time.Unix(1700000000, 0).UTC()}
	dispatcher := &recordingDispatcher{}
	ledger, err := NewLedger(LedgerOptions{
		Authority:  authority,
		Journal:    journal,
		Dispatcher: dispatcher,
		Clock:      clock.Now,
	})
	require.NoError(t, err)
	return &ledgerFixture{
		ledger:     ledger,
		journal:    journal,
		dispatcher: dispatcher,
		roles:      NewRoleService(ledger, nil),
		courses:    NewCourseService(ledger, nil, nil),
		access:     NewAccessService(ledger, nil),
		grades:     NewGradeWorkflowService(ledger, nil, nil),
		queries:    NewGradeQueryService(ledger, nil, nil),
	}
}

// seed registers MAT101 and assigns the standard cast of roles.
func (f *ledgerFixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.courses.RegisterCourse(ctx, authority, models.RegisterCourseRequest{Code: "MAT101", Name: "Mathematics 101"})
	require.NoError(t, err)
	for identity, role := range map[string]models.Role{
		teacher:   models.RoleTeacher,
		student:   models.RoleStudent,
		head:      models.RoleDepartmentHead,
		head2:     models.RoleDepartmentHead,
		director:  models.RoleGeneralDirector,
		director2: models.RoleGeneralDirector,
	} {
		_, err := f.roles.AssignRole(ctx, authority, identity, role)
		require.NoError(t, err)
	}
}

func gradeValue(v int) *int {
	return &v
}

func (f *ledgerFixture) createGrade(t *testing.T, course string, value int) uint64 {
	t.Helper()
	rec, err := f.grades.CreateGrade(context.Background(), teacher, models.CreateGradeRequest{
		Student:    student,
		CourseCode: course,
		Grade:      gradeValue(value),
		Semester:   "2024-1",
	})
	require.NoError(t, err)
	return rec.ID
}
