// Package seed loads a YAML question bank and writes it into the catalog tables.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/model"
	"gopkg.in/yaml.v3"
)

// Bank is the root of a question bank file.
type Bank struct {
	Classes []ClassDoc `yaml:"classes"`
}

type ClassDoc struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Subjects    []SubjectDoc `yaml:"subjects"`
}

type SubjectDoc struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Sets        []SetDoc `yaml:"sets"`
}

type SetDoc struct {
	Semester  int           `yaml:"semester"`
	SetNumber int           `yaml:"set_number"`
	Questions []QuestionDoc `yaml:"questions"`
}

type QuestionDoc struct {
	Text          string   `yaml:"text"`
	Options       []string `yaml:"options"`
	CorrectAnswer int      `yaml:"correct_answer"`
	Difficulty    string   `yaml:"difficulty"`
	Explanation   string   `yaml:"explanation"`
}

// Load decodes a bank from r. Unknown keys are rejected so typos surface early.
func Load(r io.Reader) (*Bank, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var b Bank
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return &b, nil
}

// Validate checks every question is gradable and every set is addressable.
// All problems are reported together.
func (b *Bank) Validate() error {
	var errs []error
	for _, c := range b.Classes {
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, errors.New("class with empty name"))
		}
		for _, s := range c.Subjects {
			where := c.Name + "/" + s.Name
			if strings.TrimSpace(s.Name) == "" {
				errs = append(errs, fmt.Errorf("%s: subject with empty name", c.Name))
			}
			seen := make(map[[2]int]bool)
			for _, set := range s.Sets {
				setWhere := fmt.Sprintf("%s semester %d set %d", where, set.Semester, set.SetNumber)
				if !model.Semester(set.Semester).Valid() {
					errs = append(errs, fmt.Errorf("%s: semester must be 1 or 2", setWhere))
				}
				if set.SetNumber < 1 {
					errs = append(errs, fmt.Errorf("%s: set_number must be at least 1", setWhere))
				}
				k := [2]int{set.Semester, set.SetNumber}
				if seen[k] {
					errs = append(errs, fmt.Errorf("%s: duplicate set", setWhere))
				}
				seen[k] = true
				if len(set.Questions) == 0 {
					errs = append(errs, fmt.Errorf("%s: no questions", setWhere))
				}
				for i, q := range set.Questions {
					if err := q.validate(); err != nil {
						errs = append(errs, fmt.Errorf("%s question %d: %w", setWhere, i+1, err))
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (q QuestionDoc) validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("empty text")
	}
	m := q.toModel(0)
	if err := m.ValidateKey(); err != nil {
		return err
	}
	switch model.Difficulty(q.Difficulty) {
	case "", model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
		return nil
	default:
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
}

func (q QuestionDoc) toModel(order int) model.Question {
	d := model.Difficulty(q.Difficulty)
	if d == "" {
		d = model.DifficultyMedium
	}
	return model.Question{
		QuestionText:  q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Difficulty:    d,
		Explanation:   q.Explanation,
		OrderNum:      order,
	}
}

// Writer is the storage the bank is written into.
type Writer interface {
	UpsertClass(ctx context.Context, c *model.Class) error
	UpsertSubject(ctx context.Context, s *model.Subject) error
	ReplaceSet(ctx context.Context, subjectID int, semester model.Semester, setNumber int, questions []model.Question) error
}

// SetWritten is called after each set is stored, e.g. to drop a cached payload.
type SetWritten func(ctx context.Context, subjectID int, semester model.Semester, setNumber int)

// Stats counts what Apply wrote.
type Stats struct {
	Classes   int
	Subjects  int
	Sets      int
	Questions int
}

// Apply writes the bank. Sets present in the bank replace the stored ones; other sets are untouched.
func Apply(ctx context.Context, b *Bank, w Writer, onSet SetWritten, log zerolog.Logger) (Stats, error) {
	var st Stats
	for _, cd := range b.Classes {
		class := &model.Class{Name: cd.Name, Description: cd.Description}
		if err := w.UpsertClass(ctx, class); err != nil {
			return st, fmt.Errorf("class %q: %w", cd.Name, err)
		}
		st.Classes++

		for _, sd := range cd.Subjects {
			subject := &model.Subject{ClassID: class.ID, Name: sd.Name, Description: sd.Description}
			if err := w.UpsertSubject(ctx, subject); err != nil {
				return st, fmt.Errorf("subject %q: %w", sd.Name, err)
			}
			st.Subjects++

			for _, set := range sd.Sets {
				semester := model.Semester(set.Semester)
				questions := make([]model.Question, len(set.Questions))
				for i, qd := range set.Questions {
					questions[i] = qd.toModel(i + 1)
				}
				if err := w.ReplaceSet(ctx, subject.ID, semester, set.SetNumber, questions); err != nil {
					return st, fmt.Errorf("%s semester %d set %d: %w", sd.Name, set.Semester, set.SetNumber, err)
				}
				if onSet != nil {
					onSet(ctx, subject.ID, semester, set.SetNumber)
				}
				st.Sets++
				st.Questions += len(questions)

				log.Info().
					Str("class", cd.Name).
					Str("subject", sd.Name).
					Int("semester", set.Semester).
					Int("set_number", set.SetNumber).
					Int("questions", len(questions)).
					Msg("Set seeded")
			}
		}
	}
	return st, nil
}
