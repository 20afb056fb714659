//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/service"
)

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	e2eClassName   = "E2E Class"
	e2eSubjectName = "E2E Mathematics"
	e2eUserID      = 990001
	e2eUserName    = "E2E Student"
)

var (
	baseURL   string
	subjectID int
	token     string
	resultID  string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	cfg := config.Load()
	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if err := seedQuestionBank(cfg.DatabaseURL); err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}

	// The token is signed with the server's secret; no login endpoint exists.
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}
	auth := service.NewAuthService(cfg, redis.NewClient(opts))
	token, err = auth.GenerateToken(e2eUserID, e2eUserName)
	if err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// seedQuestionBank upserts one class and subject and replaces set 1 of
// semester 1. Stored results are never touched.
func seedQuestionBank(dbURL string) error {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer conn.Close(ctx)

	var classID int
	if err := conn.QueryRow(ctx,
		`INSERT INTO classes (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		 RETURNING id`, e2eClassName).Scan(&classID); err != nil {
		return fmt.Errorf("seed class: %w", err)
	}
	if err := conn.QueryRow(ctx,
		`INSERT INTO subjects (class_id, name) VALUES ($1, $2)
		 ON CONFLICT (class_id, name) DO UPDATE SET updated_at = NOW()
		 RETURNING id`, classID, e2eSubjectName).Scan(&subjectID); err != nil {
		return fmt.Errorf("seed subject: %w", err)
	}

	if _, err := conn.Exec(ctx,
		`DELETE FROM questions WHERE subject_id = $1 AND semester = 1 AND set_number = 1`, subjectID); err != nil {
		return fmt.Errorf("clear set: %w", err)
	}
	questions := []struct {
		text    string
		options []string
		correct int
	}{
		{"$2+2$", []string{"3", "4", "5", "6"}, 1},
		{"$3 \\times 3$", []string{"9", "6", "12", "3"}, 0},
		{"$10 / 5$", []string{"5", "3", "2", "1"}, 2},
		{"$7 - 4$", []string{"1", "2", "4", "3"}, 3},
	}
	for i, q := range questions {
		if _, err := conn.Exec(ctx,
			`INSERT INTO questions (subject_id, question_text, options, correct_answer, semester, set_number, order_num)
			 VALUES ($1, $2, $3, $4, 1, 1, $5)`,
			subjectID, q.text, q.options, q.correct, i+1); err != nil {
			return fmt.Errorf("seed question %d: %w", i+1, err)
		}
	}
	return nil
}

func TestE2EFlow(t *testing.T) {
	var payload model.QuestionSetPayload

	t.Run("Me", func(t *testing.T) {
		resp, err := get("/me", token)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	t.Run("FetchQuestionSet", func(t *testing.T) {
		resp, err := get(fmt.Sprintf("/subjects/%d/semesters/1/sets/1/questions", subjectID), token)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		raw := readBody(resp)
		if strings.Contains(raw, "correct_answer") || strings.Contains(raw, "explanation") {
			t.Fatalf("question payload leaks the answer key: %s", raw)
		}
		var body struct {
			Data model.QuestionSetPayload `json:"data"`
		}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			t.Fatalf("json decode: %v", err)
		}
		payload = body.Data
		if len(payload.Questions) != 4 {
			t.Fatalf("expected 4 questions, got %d", len(payload.Questions))
		}
	})

	t.Run("Submit", func(t *testing.T) {
		if len(payload.Questions) != 4 {
			t.Skip("question set not loaded")
		}
		// Three answers, all correct; the fourth question is left blank.
		req := model.SubmitTestRequest{
			SubjectID: subjectID,
			Semester:  1,
			SetNumber: 1,
			Answers: map[string]int{
				payload.Questions[0].ID.String(): 1,
				payload.Questions[1].ID.String(): 0,
				payload.Questions[3].ID.String(): 3,
			},
			TimeSpent: 754,
		}
		resp, err := post("/tests/submit", req, token)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data model.SubmitTestResponse `json:"data"`
		}
		decodeJSON(t, resp, &body)
		if body.Data.CorrectCount != 3 || body.Data.Score != 0.75 || body.Data.TotalQuestions != 4 {
			t.Fatalf("unexpected grading %+v", body.Data)
		}
		resultID = body.Data.ResultID.String()
	})

	t.Run("History", func(t *testing.T) {
		resp, err := get("/tests/history", token)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Results []model.TestResultSummary `json:"results"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		found := false
		for _, r := range body.Data.Results {
			if r.ID.String() == resultID {
				found = true
			}
		}
		if !found {
			t.Fatalf("result %s missing from history", resultID)
		}
	})

	t.Run("Report", func(t *testing.T) {
		if resultID == "" {
			t.Skip("no result submitted")
		}
		resp, err := get("/tests/history/"+resultID+"/report", token)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		text := readBody(resp)
		if !strings.Contains(text, e2eSubjectName) || !strings.Contains(text, "12:34") {
			t.Fatalf("unexpected report:\n%s", text)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		resp, err := post("/auth/logout", nil, token)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("logout status %d", resp.StatusCode)
		}

		resp, err = get("/tests/history", token)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("revoked token still accepted: %d", resp.StatusCode)
		}
	})
}

// Helpers

func post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest("POST", baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func get(path string, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
