// Package client talks to the exquiz HTTP API on behalf of the terminal client.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/stemsi/exquiz-backend/internal/model"
)

const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server, decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + e.Fields[k]
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}

// IsUnauthorized reports whether the server rejected the caller's token.
func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// Client is a thin typed wrapper over the REST endpoints.
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL. An empty token sends no Authorization header.
func New(baseURL, token string) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}
	return &Client{http: rc}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return decode(resp, out)
}

func decode(resp *resty.Response, out any) error {
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.IsError() {
			return &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.IsError() || env.Error != nil {
		apiErr := &APIError{Status: resp.StatusCode()}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Fields = env.Error.Fields
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// Identity is the caller as the server sees it.
type Identity struct {
	UserID    int        `json:"user_id"`
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Me returns the identity behind the configured token.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var out struct {
		User Identity `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the configured token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

func (c *Client) ListClasses(ctx context.Context) ([]model.Class, error) {
	var out struct {
		Classes []model.Class `json:"classes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/classes", nil, &out); err != nil {
		return nil, err
	}
	return out.Classes, nil
}

func (c *Client) ListSubjects(ctx context.Context, classID int) ([]model.Subject, error) {
	var out struct {
		Subjects []model.Subject `json:"subjects"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/classes/%d/subjects", classID), nil, &out); err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

func (c *Client) ListSets(ctx context.Context, subjectID int, semester model.Semester) ([]model.SetSummary, error) {
	var out struct {
		Sets []model.SetSummary `json:"sets"`
	}
	path := fmt.Sprintf("/api/v1/subjects/%d/semesters/%d/sets", subjectID, int(semester))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Sets, nil
}

// FetchQuestionSet downloads the concealed question set for an attempt.
func (c *Client) FetchQuestionSet(ctx context.Context, subjectID int, semester model.Semester, setNumber int) (*model.QuestionSetPayload, error) {
	var out model.QuestionSetPayload
	path := fmt.Sprintf("/api/v1/subjects/%d/semesters/%d/sets/%d/questions", subjectID, int(semester), setNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit sends a finished attempt and returns the server-graded result.
func (c *Client) Submit(ctx context.Context, req *model.SubmitTestRequest) (*model.SubmitTestResponse, error) {
	var out model.SubmitTestResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/tests/submit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History lists the caller's past results, newest first.
func (c *Client) History(ctx context.Context) ([]model.TestResultSummary, error) {
	var out struct {
		Results []model.TestResultSummary `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tests/history", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Detail returns one graded result with its question snapshot.
func (c *Client) Detail(ctx context.Context, id uuid.UUID) (*model.TestResult, error) {
	var out struct {
		Result model.TestResult `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tests/history/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// Report downloads the plain-text report of a result.
func (c *Client) Report(ctx context.Context, id uuid.UUID) (string, error) {
	path := "/api/v1/tests/history/" + id.String() + "/report"
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "text/plain").
		Get(path)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return "", decode(resp, nil)
	}
	return string(resp.Body()), nil
}

// Rankings returns the current leaderboard.
func (c *Client) Rankings(ctx context.Context, limit int) ([]model.RankingEntry, error) {
	var out struct {
		Rankings []model.RankingEntry `json:"rankings"`
	}
	path := "/api/v1/rankings"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Rankings, nil
}
