package attempt

import (
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/stemsi/exquiz-backend/internal/model"
)

var (
	ErrPositionOutOfRange = errors.New("question position out of range")
	ErrOptionOutOfRange   = errors.New("option index out of range")
)

// SelectionStore holds the option picked for each question position.
// Positions may be answered, changed and cleared in any order. It has a single owner.
type SelectionStore struct {
	ids          []uuid.UUID
	optionCounts []int
	picks        map[int]int
}

// NewSelectionStore prepares an empty store for the questions in display order.
func NewSelectionStore(questions []model.QuestionForStudent) *SelectionStore {
	s := &SelectionStore{
		ids:          make([]uuid.UUID, len(questions)),
		optionCounts: make([]int, len(questions)),
		picks:        make(map[int]int),
	}
	for i, q := range questions {
		s.ids[i] = q.ID
		s.optionCounts[i] = len(q.Options)
	}
	return s
}

// Select records option for position. Out-of-range input leaves the store unchanged.
func (s *SelectionStore) Select(position, option int) error {
	if position < 0 || position >= len(s.optionCounts) {
		return fmt.Errorf("%w: %d of %d", ErrPositionOutOfRange, position, len(s.optionCounts))
	}
	if option < 0 || option >= s.optionCounts[position] {
		return fmt.Errorf("%w: %d of %d", ErrOptionOutOfRange, option, s.optionCounts[position])
	}
	s.picks[position] = option
	return nil
}

// Get returns the option picked for position, if any.
func (s *SelectionStore) Get(position int) (int, bool) {
	v, ok := s.picks[position]
	return v, ok
}

// Clear leaves position unanswered.
func (s *SelectionStore) Clear(position int) {
	delete(s.picks, position)
}

// AnsweredCount returns how many positions have a pick.
func (s *SelectionStore) AnsweredCount() int {
	return len(s.picks)
}

// Len returns the number of questions.
func (s *SelectionStore) Len() int {
	return len(s.optionCounts)
}

// Snapshot returns a copy of the position to option mapping.
func (s *SelectionStore) Snapshot() map[int]int {
	return maps.Clone(s.picks)
}

// ByQuestionID keys the picks by question ID, the form the server grades.
// The result is never nil.
func (s *SelectionStore) ByQuestionID() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(s.picks))
	for pos, opt := range s.picks {
		out[s.ids[pos]] = opt
	}
	return out
}

// WireAnswers is ByQuestionID with string keys, ready for a JSON request body.
func (s *SelectionStore) WireAnswers() map[string]int {
	out := make(map[string]int, len(s.picks))
	for id, opt := range s.ByQuestionID() {
		out[id.String()] = opt
	}
	return out
}

// Reset drops every pick.
func (s *SelectionStore) Reset() {
	clear(s.picks)
}
