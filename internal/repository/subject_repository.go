package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exquiz-backend/internal/model"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// GetByID retrieves a subject together with the name of its owning class.
func (r *SubjectRepository) GetByID(ctx context.Context, id int) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT s.id, s.class_id, c.name, s.name, s.description, s.created_at, s.updated_at
		 FROM subjects s
		 JOIN classes c ON c.id = s.class_id
		 WHERE s.id = $1`, id,
	).Scan(&s.ID, &s.ClassID, &s.ClassName, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SubjectRepository) ListByClass(ctx context.Context, classID int) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.class_id, c.name, s.name, s.description, s.created_at, s.updated_at
		 FROM subjects s
		 JOIN classes c ON c.id = s.class_id
		 WHERE s.class_id = $1
		 ORDER BY s.name ASC`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.ClassID, &s.ClassName, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// Upsert inserts a subject or refreshes the description of an existing one with the same name.
func (r *SubjectRepository) Upsert(ctx context.Context, s *model.Subject) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subjects (class_id, name, description) VALUES ($1, $2, $3)
		 ON CONFLICT (class_id, name) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		s.ClassID, s.Name, s.Description).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}
