// Package attempt runs one timed test attempt on the client: the countdown, the
// answer picks and the submission state machine.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/model"
)

// State is a step of the attempt lifecycle.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateSubmitting
	StateSubmitted
	StateSubmitFailed
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateSubmitFailed:
		return "submit_failed"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrSubmitInFlight   = errors.New("a submission is already in flight")
	ErrNotInProgress    = errors.New("attempt is not in progress")
	ErrAlreadyStarted   = errors.New("attempt already started")
	ErrAttemptFinished  = errors.New("attempt is already finished")
	ErrEmptyQuestionSet = errors.New("question set has no questions")
)

// Submitter sends a finished attempt to the server for grading.
type Submitter interface {
	Submit(ctx context.Context, req *model.SubmitTestRequest) (*model.SubmitTestResponse, error)
}

// Session is one attempt at a question set. All methods are safe to call from the
// ticker goroutine and the input loop at the same time.
type Session struct {
	mu        sync.Mutex
	state     State
	payload   *model.QuestionSetPayload
	clock     *Clock
	store     *SelectionStore
	cursor    int
	inFlight  bool
	submitter Submitter
	result    *model.SubmitTestResponse
	lastErr   error
	finished  chan struct{}
	duration  int
	log       zerolog.Logger
}

// NewSession prepares an attempt. The countdown starts from the payload's duration.
func NewSession(payload *model.QuestionSetPayload, submitter Submitter, log zerolog.Logger) (*Session, error) {
	if payload == nil || len(payload.Questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}

	duration := payload.DurationSeconds
	if duration <= 0 {
		duration = DefaultDurationSeconds
	}

	return &Session{
		state:     StateNotStarted,
		payload:   payload,
		clock:     NewClock(duration),
		store:     NewSelectionStore(payload.Questions),
		submitter: submitter,
		finished:  make(chan struct{}),
		duration:  duration,
		log: log.With().
			Str("component", "attempt").
			Int("subject_id", payload.SubjectID).
			Int("set_number", payload.SetNumber).
			Logger(),
	}, nil
}

// Start opens the attempt and lets the clock run.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	s.state = StateInProgress
	s.log.Debug().Int("duration", s.duration).Msg("Attempt started")
	return nil
}

// Tick advances the clock by one second while the attempt is open. It reports true on
// the tick that expires the clock; the caller must then call Submit.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress && s.state != StateSubmitting {
		return false
	}
	expired := s.clock.Tick()
	if expired {
		s.log.Info().Int("answered", s.store.AnsweredCount()).Msg("Time is up")
	}
	return expired && s.state == StateInProgress
}

// Select picks option for the current question. Rejected picks are logged and
// reported as false; the store is left unchanged.
func (s *Session) Select(option int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(s.cursor, option)
}

// SelectAt picks option for any position.
func (s *Session) SelectAt(position, option int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(position, option)
}

func (s *Session) selectLocked(position, option int) bool {
	if s.state != StateInProgress {
		s.log.Warn().Str("state", s.state.String()).Msg("Ignoring selection outside an open attempt")
		return false
	}
	if s.clock.IsExpired() {
		s.log.Warn().Msg("Ignoring selection after time ran out")
		return false
	}
	if err := s.store.Select(position, option); err != nil {
		s.log.Warn().Err(err).Int("position", position).Int("option", option).Msg("Selection rejected")
		return false
	}
	return true
}

// Clear removes the pick for the current question.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInProgress {
		s.store.Clear(s.cursor)
	}
}

// GoTo moves the cursor to position.
func (s *Session) GoTo(position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 || position >= s.store.Len() {
		return fmt.Errorf("%w: %d", ErrPositionOutOfRange, position)
	}
	s.cursor = position
	return nil
}

// Next moves to the following question, staying on the last one.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < s.store.Len()-1 {
		s.cursor++
	}
}

// Prev moves to the previous question, staying on the first one.
func (s *Session) Prev() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor > 0 {
		s.cursor--
	}
}

// View is a consistent snapshot of what the UI shows.
type View struct {
	State     State
	Position  int
	Total     int
	Question  model.QuestionForStudent
	Selected  *int
	Answered  int
	Remaining int
}

// View returns the current question and progress.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:     s.state,
		Position:  s.cursor,
		Total:     s.store.Len(),
		Question:  s.payload.Questions[s.cursor],
		Answered:  s.store.AnsweredCount(),
		Remaining: s.clock.Remaining(),
	}
	if opt, ok := s.store.Get(s.cursor); ok {
		v.Selected = &opt
	}
	return v
}

// Submit sends the current picks for grading. It is allowed from InProgress, and from
// SubmitFailed as a retry. While one call is pending every other call gets ErrSubmitInFlight.
//
// On failure the attempt returns to InProgress with its picks intact, unless the clock
// has run out, in which case it stays in SubmitFailed.
func (s *Session) Submit(ctx context.Context) (*model.SubmitTestResponse, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	switch s.state {
	case StateInProgress, StateSubmitFailed:
	case StateSubmitted, StateAbandoned:
		s.mu.Unlock()
		return nil, ErrAttemptFinished
	default:
		s.mu.Unlock()
		return nil, ErrNotInProgress
	}

	s.state = StateSubmitting
	s.inFlight = true
	req := s.buildRequestLocked()
	s.mu.Unlock()

	res, err := s.submitter.Submit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if s.state == StateAbandoned {
		return nil, ErrAttemptFinished
	}

	if err != nil {
		s.lastErr = err
		if s.clock.IsExpired() {
			s.state = StateSubmitFailed
		} else {
			s.state = StateInProgress
		}
		s.log.Warn().Err(err).Str("state", s.state.String()).Msg("Submission failed")
		return nil, err
	}

	s.state = StateSubmitted
	s.result = res
	s.lastErr = nil
	close(s.finished)
	s.log.Info().Float64("score", res.Score).Int("correct", res.CorrectCount).Msg("Attempt submitted")
	return res, nil
}

func (s *Session) buildRequestLocked() *model.SubmitTestRequest {
	picks := s.store.Snapshot()

	questionSet := make([]model.SubmittedQuestion, len(s.payload.Questions))
	for i, q := range s.payload.Questions {
		questionSet[i] = model.SubmittedQuestion{
			QuestionID:   q.ID.String(),
			QuestionText: q.QuestionText,
			Options:      q.Options,
		}
		if opt, ok := picks[i]; ok {
			v := opt
			questionSet[i].UserAnswer = &v
		}
	}

	return &model.SubmitTestRequest{
		SubjectID:   s.payload.SubjectID,
		Semester:    int(s.payload.Semester),
		SetNumber:   s.payload.SetNumber,
		Answers:     s.store.WireAnswers(),
		QuestionSet: questionSet,
		TimeSpent:   s.duration - s.clock.Remaining(),
	}
}

// Abandon discards the attempt. Nothing is sent to the server.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted || s.state == StateAbandoned {
		return
	}
	s.state = StateAbandoned
	s.store.Reset()
	close(s.finished)
	s.log.Debug().Msg("Attempt abandoned")
}

// State returns the current lifecycle step.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the graded response once submitted.
func (s *Session) Result() *model.SubmitTestResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// LastError returns the error of the most recent failed submission.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Answers returns a copy of the picks by position.
func (s *Session) Answers() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Finished is closed once the attempt is submitted or abandoned.
func (s *Session) Finished() <-chan struct{} {
	return s.finished
}

// Expired is closed when the countdown runs out.
func (s *Session) Expired() <-chan struct{} {
	return s.clock.Done()
}
