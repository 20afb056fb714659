package attempt

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exquiz-backend/internal/model"
)

func threeQuestions() []model.QuestionForStudent {
	return []model.QuestionForStudent{
		{ID: uuid.New(), QuestionText: "one", Options: []string{"a", "b", "c", "d"}},
		{ID: uuid.New(), QuestionText: "two", Options: []string{"a", "b"}},
		{ID: uuid.New(), QuestionText: "three", Options: []string{"a", "b", "c"}},
	}
}

func TestSelectionStore(t *testing.T) {
	qs := threeQuestions()
	s := NewSelectionStore(qs)

	if err := s.Select(2, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.Select(0, 3); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.Select(0, 2); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got, _ := s.Get(0); got != 2 {
		t.Fatalf("expected changed pick 2, got %d", got)
	}
	if s.AnsweredCount() != 2 {
		t.Fatalf("expected 2 answered, got %d", s.AnsweredCount())
	}

	byID := s.ByQuestionID()
	if byID[qs[0].ID] != 2 || byID[qs[2].ID] != 1 {
		t.Fatalf("unexpected id mapping %v", byID)
	}
	if _, ok := byID[qs[1].ID]; ok {
		t.Fatal("unanswered question present in mapping")
	}

	wire := s.WireAnswers()
	if wire[qs[2].ID.String()] != 1 || len(wire) != 2 {
		t.Fatalf("unexpected wire answers %v", wire)
	}

	s.Clear(0)
	if _, ok := s.Get(0); ok {
		t.Fatal("cleared pick still present")
	}
}

func TestSelectionStoreRejectsOutOfRange(t *testing.T) {
	s := NewSelectionStore(threeQuestions())
	_ = s.Select(1, 0)

	tests := []struct {
		pos, opt int
		want     error
	}{
		{-1, 0, ErrPositionOutOfRange},
		{3, 0, ErrPositionOutOfRange},
		{1, 2, ErrOptionOutOfRange},
		{1, -1, ErrOptionOutOfRange},
	}
	for _, tt := range tests {
		if err := s.Select(tt.pos, tt.opt); !errors.Is(err, tt.want) {
			t.Fatalf("Select(%d, %d): expected %v, got %v", tt.pos, tt.opt, tt.want, err)
		}
	}

	if got, _ := s.Get(1); got != 0 || s.AnsweredCount() != 1 {
		t.Fatal("rejected selection changed the store")
	}
}

func TestSelectionStoreEmptyMappingsAreNotNil(t *testing.T) {
	s := NewSelectionStore(threeQuestions())
	if s.ByQuestionID() == nil || s.WireAnswers() == nil || s.Snapshot() == nil {
		t.Fatal("expected non-nil empty mappings")
	}

	_ = s.Select(0, 0)
	snap := s.Snapshot()
	snap[0] = 3
	if got, _ := s.Get(0); got != 0 {
		t.Fatal("snapshot aliases the store")
	}

	s.Reset()
	if s.AnsweredCount() != 0 {
		t.Fatal("reset left picks behind")
	}
}
