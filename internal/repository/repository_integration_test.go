//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exquiz-backend/internal/database"
	"github.com/stemsi/exquiz-backend/internal/model"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "exquiz", "POSTGRES_PASSWORD": "exquiz_secret", "POSTGRES_DB": "exquiz"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://exquiz:exquiz_secret@%s:%s/exquiz?sslmode=disable", host, port.Port())

	if err := database.MigrateUp("../../migrations", dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestRepositoriesAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)

	classes := NewClassRepository(pool)
	subjects := NewSubjectRepository(pool)
	questions := NewQuestionRepository(pool)
	results := NewTestResultRepository(pool)

	class := &model.Class{Name: "Grade 10", Description: "first year"}
	if err := classes.Upsert(ctx, class); err != nil {
		t.Fatalf("upsert class: %v", err)
	}
	again := &model.Class{Name: "Grade 10", Description: "updated"}
	if err := classes.Upsert(ctx, again); err != nil {
		t.Fatalf("re-upsert class: %v", err)
	}
	if again.ID != class.ID {
		t.Fatalf("upsert by name created a second class: %d vs %d", again.ID, class.ID)
	}

	subject := &model.Subject{ClassID: class.ID, Name: "Mathematics"}
	if err := subjects.Upsert(ctx, subject); err != nil {
		t.Fatalf("upsert subject: %v", err)
	}
	got, err := subjects.GetByID(ctx, subject.ID)
	if err != nil {
		t.Fatalf("get subject: %v", err)
	}
	if got.ClassID != class.ID || got.Name != "Mathematics" {
		t.Fatalf("unexpected subject %+v", got)
	}

	set := []model.Question{
		{QuestionText: "2 + 2", Options: []string{"3", "4", "5"}, CorrectAnswer: 1, Difficulty: model.DifficultyEasy, OrderNum: 1},
		{QuestionText: "3 x 3", Options: []string{"9", "6"}, CorrectAnswer: 0, Difficulty: model.DifficultyMedium, OrderNum: 2},
	}
	if err := questions.ReplaceSet(ctx, subject.ID, model.SemesterOne, 1, set); err != nil {
		t.Fatalf("replace set: %v", err)
	}
	// Replacing again must not duplicate rows.
	if err := questions.ReplaceSet(ctx, subject.ID, model.SemesterOne, 1, set); err != nil {
		t.Fatalf("replace set again: %v", err)
	}

	stored, err := questions.ListBySet(ctx, subject.ID, model.SemesterOne, 1)
	if err != nil {
		t.Fatalf("list by set: %v", err)
	}
	if len(stored) != 2 || stored[0].QuestionText != "2 + 2" || stored[0].CorrectAnswer != 1 {
		t.Fatalf("unexpected set %+v", stored)
	}
	sets, err := questions.ListSets(ctx, subject.ID, model.SemesterOne)
	if err != nil {
		t.Fatalf("list sets: %v", err)
	}
	if len(sets) != 1 || sets[0].SetNumber != 1 || sets[0].QuestionCount != 2 {
		t.Fatalf("unexpected sets %+v", sets)
	}
	if empty, err := questions.ListBySet(ctx, subject.ID, model.SemesterTwo, 1); err != nil || len(empty) != 0 {
		t.Fatalf("expected empty semester two, got %d questions, err %v", len(empty), err)
	}

	answer := 1
	res := &model.TestResult{
		UserID: 7, SubjectID: subject.ID, SubjectName: subject.Name, ClassID: class.ID, ClassName: class.Name,
		Semester: model.SemesterOne, SetNumber: 1, CorrectCount: 1, Score: 0.25, TotalQuestions: 2, TimeSpent: 300,
		Questions: []model.GradedQuestion{
			{QuestionID: stored[0].ID, QuestionText: stored[0].QuestionText, Options: stored[0].Options, CorrectAnswer: 1, UserAnswer: &answer, IsCorrect: true},
			{QuestionID: stored[1].ID, QuestionText: stored[1].QuestionText, Options: stored[1].Options, CorrectAnswer: 0},
		},
	}
	if err := results.Create(ctx, res); err != nil {
		t.Fatalf("create result: %v", err)
	}
	if res.ID == uuid.Nil || res.SubmittedAt.IsZero() {
		t.Fatalf("database did not assign id/submitted_at: %+v", res)
	}

	loaded, err := results.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if loaded.Score != 0.25 || len(loaded.Questions) != 2 {
		t.Fatalf("unexpected result %+v", loaded)
	}
	if loaded.Questions[0].UserAnswer == nil || *loaded.Questions[0].UserAnswer != 1 {
		t.Fatalf("answer not preserved: %+v", loaded.Questions[0])
	}
	if loaded.Questions[1].UserAnswer != nil {
		t.Fatalf("unanswered question gained an answer: %+v", loaded.Questions[1])
	}

	if _, err := results.GetByID(ctx, uuid.New()); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}

	second := *res
	second.ID = uuid.Nil
	second.Score = 0.5
	second.CorrectCount = 2
	second.Questions = res.Questions[:1]
	if err := results.Create(ctx, &second); err != nil {
		t.Fatalf("create second result: %v", err)
	}

	fine := *res
	fine.ID = uuid.Nil
	fine.UserID = 9
	fine.Score = 0.375
	fine.CorrectCount = 3
	if err := results.Create(ctx, &fine); err != nil {
		t.Fatalf("create result with fine points: %v", err)
	}
	if stored, err := results.GetByID(ctx, fine.ID); err != nil || stored.Score != 0.375 {
		t.Fatalf("score not kept exactly: %+v, %v", stored, err)
	}

	history, err := results.ListByUser(ctx, 7)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(history) != 2 || history[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", history)
	}
	if other, err := results.ListByUser(ctx, 8); err != nil || other == nil || len(other) != 0 {
		t.Fatalf("expected empty non-nil history, got %v, %v", other, err)
	}

	totals, err := results.AggregateForUsers(ctx, []int{7, 8})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(totals) != 1 || totals[0].UserID != 7 || totals[0].TotalTests != 2 || totals[0].TotalScore != 0.75 {
		t.Fatalf("unexpected totals %+v", totals)
	}

	if _, err := pool.Exec(ctx, `UPDATE test_results SET score = 9 WHERE id = $1`, res.ID); err == nil {
		t.Fatal("update of a stored result succeeded")
	}
	if _, err := pool.Exec(ctx, `DELETE FROM test_result_questions WHERE result_id = $1`, res.ID); err == nil {
		t.Fatal("delete of a graded question succeeded")
	}
}
