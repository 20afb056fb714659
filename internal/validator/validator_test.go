package validator

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stemsi/exquiz-backend/internal/model"
)

func TestMain(m *testing.M) {
	Setup()
	os.Exit(m.Run())
}

func validRequest() model.SubmitTestRequest {
	return model.SubmitTestRequest{
		SubjectID: 1,
		Semester:  2,
		SetNumber: 1,
		Answers:   map[string]int{"6f1c2d3e-4b5a-4c6d-8e7f-001122334455": 0},
	}
}

func TestSubmitRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(r *model.SubmitTestRequest)
		field string
	}{
		{"valid", func(r *model.SubmitTestRequest) {}, ""},
		{"empty answers allowed", func(r *model.SubmitTestRequest) { r.Answers = map[string]int{} }, ""},
		{"semester out of range", func(r *model.SubmitTestRequest) { r.Semester = 3 }, "semester"},
		{"missing set", func(r *model.SubmitTestRequest) { r.SetNumber = 0 }, "set_number"},
		{"missing answers", func(r *model.SubmitTestRequest) { r.Answers = nil }, "answers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mut(&req)

			err := binding.Validator.ValidateStruct(&req)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid request, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s to fail", tt.field)
			}
			fields := TranslateErrors(err)
			if _, ok := fields[tt.field]; !ok {
				t.Fatalf("expected field %q, got %v", tt.field, fields)
			}
		})
	}
}

func TestSemesterMessage(t *testing.T) {
	req := validRequest()
	req.Semester = 5

	fields := TranslateErrors(binding.Validator.ValidateStruct(&req))
	if got := fields["semester"]; got != "semester must be 1 or 2" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAnswerKeysMustBeQuestionIDs(t *testing.T) {
	req := validRequest()
	req.Answers = map[string]int{"0": 1}

	if err := binding.Validator.ValidateStruct(&req); err == nil {
		t.Fatal("expected positional answer key to be rejected")
	}
}

func TestNegativeOptionRejected(t *testing.T) {
	req := validRequest()
	req.Answers = map[string]int{"6f1c2d3e-4b5a-4c6d-8e7f-001122334455": -1}

	if err := binding.Validator.ValidateStruct(&req); err == nil {
		t.Fatal("expected negative option to be rejected")
	}
}
