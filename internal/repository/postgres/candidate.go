package postgres

import (
	"context"
	"database/sql"
	"errors"

	"applybot/internal/domain"
	"applybot/internal/repository"

	"github.com/lib/pq"
)

// CandidateRepo implements repository.CandidateRepository.
type CandidateRepo struct {
	db *sql.DB
}

// NewCandidateRepo creates a new candidate repository.
func NewCandidateRepo(db *sql.DB) *CandidateRepo {
	return &CandidateRepo{db: db}
}

// All returns every candidate record.
func (r *CandidateRepo) All(ctx context.Context) ([]domain.Candidate, error) {
	query := `
		SELECT telegram_id, username, name, common_qa, departments, departments_qa, created_at
		FROM candidates
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var departments []string
		if err := rows.Scan(
			&c.TelegramID, &c.Username, &c.Name, &c.CommonQA,
			pq.Array(&departments), &c.DepartmentsQA, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		for _, d := range departments {
			c.Departments = append(c.Departments, domain.DepartmentID(d))
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// Create inserts a candidate record. A second application for the same
// Telegram identity trips the unique index and maps to ErrCandidateExists.
func (r *CandidateRepo) Create(ctx context.Context, cand *domain.Candidate) error {
	departments := make([]string, 0, len(cand.Departments))
	for _, d := range cand.Departments {
		departments = append(departments, string(d))
	}

	query := `
		INSERT INTO candidates (telegram_id, username, name, common_qa, departments, departments_qa)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		cand.TelegramID, cand.Username, cand.Name, cand.CommonQA,
		pq.Array(departments), cand.DepartmentsQA,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrCandidateExists
		}
		return err
	}
	return nil
}
