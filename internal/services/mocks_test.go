package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/elimu-cbe/cbe-platform/internal/events"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/relay"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

// Hand-written fakes shared by the service tests. Unimplemented interface
// methods panic via the embedded nil interface, which is what we want: a test
// reaching an unstubbed method is a test with a gap.

type fakeRepo struct {
	assessment repositories.AssessmentRepository
	progress   repositories.ProgressRepository
	submission repositories.SubmissionRepository
	resource   repositories.ResourceRepository
	analytics  repositories.AnalyticsRepository
	user       repositories.UserRepository
}

func (f *fakeRepo) Assessment() repositories.AssessmentRepository { return f.assessment }
func (f *fakeRepo) Progress() repositories.ProgressRepository     { return f.progress }
func (f *fakeRepo) Submission() repositories.SubmissionRepository { return f.submission }
func (f *fakeRepo) Resource() repositories.ResourceRepository     { return f.resource }
func (f *fakeRepo) Analytics() repositories.AnalyticsRepository   { return f.analytics }
func (f *fakeRepo) User() repositories.UserRepository             { return f.user }
func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

// fakeAssessmentRepo serves assessments from an in-memory map

type fakeAssessmentRepo struct {
	repositories.AssessmentRepository
	assessments map[uint]*models.Assessment
}

func (f *fakeAssessmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	a, ok := f.assessments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (f *fakeAssessmentRepo) IsOwner(ctx context.Context, tx *gorm.DB, assessmentID uint, userID string) (bool, error) {
	a, ok := f.assessments[assessmentID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	return a.CreatedBy == userID, nil
}

// fakeProgressRepo honors the ledger contract: one row per pair, Upsert
// inserts or overwrites in place. The mutex mirrors the serialization the
// database's unique index provides, so concurrent writers can exercise it.

type fakeProgressRepo struct {
	repositories.ProgressRepository
	mu      sync.Mutex
	records map[string]*models.Progress
	nextID  uint
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[string]*models.Progress)}
}

func pairKey(studentID string, assessmentID uint) string {
	return fmt.Sprintf("%s:%d", studentID, assessmentID)
}

func (f *fakeProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, record *models.Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := pairKey(record.StudentID, record.AssessmentID)
	if existing, ok := f.records[key]; ok {
		existing.Score = record.Score
		existing.CBCLevel = record.CBCLevel
		// Score-only writes keep the stored answer, matching the
		// COALESCE/NULLIF guard in the postgres upsert
		if record.SubmittedAnswer != "" {
			existing.SubmittedAnswer = record.SubmittedAnswer
		}
		existing.UpdatedAt = time.Now()
		*record = *existing
		return nil
	}
	f.nextID++
	record.ID = f.nextID
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	stored := *record
	f.records[key] = &stored
	return nil
}

func (f *fakeProgressRepo) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeProgressRepo) GetByPair(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.Progress, error) {
	record, ok := f.records[pairKey(studentID, assessmentID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeProgressRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ProgressFilters) ([]*models.Progress, int64, error) {
	var out []*models.Progress
	for _, r := range f.records {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

// fakeUserRepo resolves roles from a static map

type fakeUserRepo struct {
	repositories.UserRepository
	users map[string]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func testUsers() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{
		"student-1": {ID: "student-1", Role: models.RoleStudent},
		"student-2": {ID: "student-2", Role: models.RoleStudent},
		"teacher-1": {ID: "teacher-1", Role: models.RoleTeacher},
		"admin-1":   {ID: "admin-1", Role: models.RoleAdmin},
	}}
}

// newTestNotification wires a real notification service onto the mock
// publisher and a running hub with no clients attached
func newTestNotification(t *testing.T) (NotificationEventService, *events.MockEventPublisher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	hub := relay.NewHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		hub.Stop()
		cancel()
	})

	return NewNotificationEventService(publisher, hub, logger, validator.New()), publisher
}

// quietNotification drops progress notifications. Tests driving many
// goroutines through the ledger use it so they do not contend on the
// mock publisher's capture slice.
type quietNotification struct {
	NotificationEventService
}

func (quietNotification) NotifyProgressUpdated(ctx context.Context, record *models.Progress, assessmentTitle string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
