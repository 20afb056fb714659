package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exquiz-backend/internal/model"
)

func writeEnvelope(w http.ResponseWriter, status int, data any, errBody map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"data": data, "metadata": map[string]string{"request_id": "r1"}}
	if errBody != nil {
		body["error"] = errBody
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestSubmitSendsTokenAndDecodesResult(t *testing.T) {
	resultID := uuid.New()
	qid := uuid.New().String()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tests/submit" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeEnvelope(w, http.StatusUnauthorized, nil, map[string]any{"code": "TOKEN_REQUIRED", "message": "missing"})
			return
		}
		var req model.SubmitTestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Answers[qid] != 2 {
			writeEnvelope(w, http.StatusBadRequest, nil, map[string]any{"code": "VALIDATION_ERROR"})
			return
		}
		writeEnvelope(w, http.StatusCreated, model.SubmitTestResponse{ResultID: resultID, Score: 0.25, CorrectCount: 1, TotalQuestions: 4}, nil)
	}))
	defer srv.Close()

	res, err := New(srv.URL, "tok").Submit(context.Background(), &model.SubmitTestRequest{
		SubjectID: 1, Semester: 1, SetNumber: 1, Answers: map[string]int{qid: 2},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ResultID != resultID || res.Score != 0.25 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, nil, map[string]any{
			"code":    "VALIDATION_ERROR",
			"message": "Request validation failed",
			"fields":  map[string]string{"semester": "semester must be 1 or 2"},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok").History(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "VALIDATION_ERROR" || apiErr.Fields["semester"] == "" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if apiErr.IsUnauthorized() {
		t.Fatal("400 reported as unauthorized")
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").ListClasses(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFetchQuestionSetAndReport(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/subjects/3/semesters/2/sets/1/questions":
			writeEnvelope(w, http.StatusOK, model.QuestionSetPayload{
				SubjectID: 3, Semester: 2, SetNumber: 1, DurationSeconds: 2700,
				Questions: []model.QuestionForStudent{{ID: uuid.New(), QuestionText: "q", Options: []string{"a", "b"}}},
			}, nil)
		case "/api/v1/tests/history/" + id.String() + "/report":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("Test Result\n"))
		default:
			writeEnvelope(w, http.StatusNotFound, nil, map[string]any{"code": "RESULT_NOT_FOUND"})
		}
	}))
	defer srv.Close()
	c := New(srv.URL+"/", "tok")
	ctx := context.Background()

	payload, err := c.FetchQuestionSet(ctx, 3, model.SemesterTwo, 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if payload.DurationSeconds != 2700 || len(payload.Questions) != 1 {
		t.Fatalf("unexpected payload %+v", payload)
	}

	body, err := c.Report(ctx, id)
	if err != nil || body != "Test Result\n" {
		t.Fatalf("report: %q %v", body, err)
	}

	_, err = c.Report(ctx, uuid.New())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "RESULT_NOT_FOUND" {
		t.Fatalf("expected RESULT_NOT_FOUND, got %v", err)
	}
}

func TestCredentialsLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")

	if _, err := LoadCredentials(path); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}

	want := &Credentials{APIURL: "http://quiz.local", Token: "tok", UserID: 4, Name: "Dewi"}
	if err := SaveCredentials(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := ClearCredentials(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := ClearCredentials(path); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, err := LoadCredentials(path); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after clear, got %v", err)
	}
}
