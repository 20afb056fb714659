package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/repository"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		JWTExpiry:           time.Hour,
		TestDurationSeconds: 2700,
		PointsPerCorrect:    "0.25",
		QuestionCacheTTL:    time.Minute,
		RankingLimit:        10,
	}
}

type fakeClassStore struct {
	classes map[int]model.Class
}

func (f *fakeClassStore) GetByID(_ context.Context, id int) (*model.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (f *fakeClassStore) List(_ context.Context) ([]model.Class, error) {
	var out []model.Class
	for _, c := range f.classes {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b model.Class) int { return a.ID - b.ID })
	return out, nil
}

type fakeSubjectStore struct {
	subjects map[int]model.Subject
}

func (f *fakeSubjectStore) GetByID(_ context.Context, id int) (*model.Subject, error) {
	s, ok := f.subjects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSubjectStore) ListByClass(_ context.Context, classID int) ([]model.Subject, error) {
	var out []model.Subject
	for _, s := range f.subjects {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

type setKey struct {
	subjectID int
	semester  model.Semester
	setNumber int
}

type fakeQuestionStore struct {
	mu    sync.Mutex
	sets  map[setKey][]model.Question
	calls int
}

func (f *fakeQuestionStore) ListBySet(ctx context.Context, subjectID int, semester model.Semester, setNumber int) ([]model.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return slices.Clone(f.sets[setKey{subjectID, semester, setNumber}]), nil
}

func (f *fakeQuestionStore) ListSets(_ context.Context, subjectID int, semester model.Semester) ([]model.SetSummary, error) {
	var out []model.SetSummary
	for k, qs := range f.sets {
		if k.subjectID == subjectID && k.semester == semester {
			out = append(out, model.SetSummary{SetNumber: k.setNumber, QuestionCount: len(qs)})
		}
	}
	slices.SortFunc(out, func(a, b model.SetSummary) int { return a.SetNumber - b.SetNumber })
	return out, nil
}

type fakeResultStore struct {
	mu        sync.Mutex
	results   []model.TestResult
	createErr error
}

func (f *fakeResultStore) Create(_ context.Context, res *model.TestResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	res.ID = uuid.New()
	res.SubmittedAt = time.Now().UTC()
	f.results = append(f.results, *res)
	return nil
}

func (f *fakeResultStore) ListByUser(_ context.Context, userID int) ([]model.TestResultSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TestResultSummary
	for i := len(f.results) - 1; i >= 0; i-- {
		if f.results[i].UserID == userID {
			out = append(out, f.results[i].Summary())
		}
	}
	return out, nil
}

func (f *fakeResultStore) GetByID(_ context.Context, id uuid.UUID) (*model.TestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// AggregateByUser and AggregateForUsers sum the stored results the way the SQL does.
func (f *fakeResultStore) AggregateByUser(ctx context.Context) ([]repository.UserScoreTotals, error) {
	return f.aggregate(nil), nil
}

func (f *fakeResultStore) AggregateForUsers(ctx context.Context, userIDs []int) ([]repository.UserScoreTotals, error) {
	return f.aggregate(userIDs), nil
}

func (f *fakeResultStore) aggregate(only []int) []repository.UserScoreTotals {
	f.mu.Lock()
	defer f.mu.Unlock()
	byUser := map[int]*repository.UserScoreTotals{}
	var order []int
	for _, r := range f.results {
		if only != nil && !slices.Contains(only, r.UserID) {
			continue
		}
		t, ok := byUser[r.UserID]
		if !ok {
			t = &repository.UserScoreTotals{UserID: r.UserID}
			byUser[r.UserID] = t
			order = append(order, r.UserID)
		}
		t.TotalScore += r.Score
		t.TotalTests++
	}
	out := make([]repository.UserScoreTotals, 0, len(order))
	for _, id := range order {
		out = append(out, *byUser[id])
	}
	return out
}

type recordingQueue struct {
	events []model.RankingEvent
	err    error
}

func (q *recordingQueue) Enqueue(_ context.Context, ev model.RankingEvent) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, ev)
	return nil
}

var errStoreDown = errors.New("connection refused")

// fixture wires the services over in-memory stores holding one class, one subject
// and a four-question set with correct indices [1, 0, 2, 3].
type fixture struct {
	classes   *fakeClassStore
	subjects  *fakeSubjectStore
	questions *fakeQuestionStore
	results   *fakeResultStore
	queue     *recordingQueue
	rdb       *redis.Client
	mr        *miniredis.Miniredis

	subjectSvc    *SubjectService
	questionSvc   *QuestionService
	submissionSvc *SubmissionService
	historySvc    *HistoryService

	set []model.Question
}

const (
	fixtureClassID   = 10
	fixtureSubjectID = 3
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, rdb := newRedis(t)
	log := zerolog.Nop()
	cfg := testConfig()

	set := sampleSet(fixtureSubjectID, []int{1, 0, 2, 3})

	f := &fixture{
		classes: &fakeClassStore{classes: map[int]model.Class{
			fixtureClassID: {ID: fixtureClassID, Name: "Grade 10"},
		}},
		subjects: &fakeSubjectStore{subjects: map[int]model.Subject{
			fixtureSubjectID: {ID: fixtureSubjectID, ClassID: fixtureClassID, ClassName: "Grade 10", Name: "Mathematics"},
		}},
		questions: &fakeQuestionStore{sets: map[setKey][]model.Question{
			{fixtureSubjectID, model.SemesterOne, 1}: set,
		}},
		results: &fakeResultStore{},
		queue:   &recordingQueue{},
		rdb:     rdb,
		mr:      mr,
		set:     set,
	}

	classSvc := NewClassService(f.classes)
	f.subjectSvc = NewSubjectService(f.subjects, classSvc, log)
	f.questionSvc = NewQuestionService(f.questions, f.subjectSvc, rdb, cfg, log)
	f.submissionSvc = NewSubmissionService(f.subjectSvc, f.questionSvc, f.results, f.queue, cfg, log)
	f.historySvc = NewHistoryService(f.results)
	return f
}

func sampleSet(subjectID int, correct []int) []model.Question {
	qs := make([]model.Question, len(correct))
	for i, c := range correct {
		qs[i] = model.Question{
			ID:            uuid.New(),
			SubjectID:     subjectID,
			QuestionText:  "Question " + string(rune('1'+i)),
			Options:       []string{"w", "x", "y", "z"},
			CorrectAnswer: c,
			Semester:      model.SemesterOne,
			SetNumber:     1,
			Difficulty:    model.DifficultyMedium,
			OrderNum:      i + 1,
		}
	}
	return qs
}
