package postgres

import (
	"context"
	"database/sql"

	"applybot/internal/domain"

	"github.com/lib/pq"
)

// MemberRepo implements repository.MemberRepository.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo creates a new member repository.
func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// All returns every member record. The table is small; the directory layer
// caches the full set.
func (r *MemberRepo) All(ctx context.Context) ([]domain.Member, error) {
	query := `
		SELECT telegram_id, full_name, active, level, joined, languages
		FROM members
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		var level sql.NullString
		var joined sql.NullTime
		if err := rows.Scan(
			&m.TelegramID, &m.FullName, &m.IsActive, &level, &joined, pq.Array(&m.Languages),
		); err != nil {
			return nil, err
		}
		if level.Valid {
			m.Level = level.String
		}
		if joined.Valid {
			t := joined.Time
			m.Joined = &t
		}
		members = append(members, m)
	}

	return members, rows.Err()
}
