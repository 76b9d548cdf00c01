package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"applybot/internal/domain"
)

// SessionRepo implements repository.SessionRepository. Sessions are stored
// as one JSON document per user so new optional fields stay forward
// compatible with rows written by older versions.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new session repository.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Get loads the session for a user, or nil if none exists yet.
func (r *SessionRepo) Get(userID int64) (*domain.Session, error) {
	var data []byte
	query := `SELECT data FROM sessions WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session for user %d: %w", userID, err)
	}
	sess.UserID = userID
	return &sess, nil
}

// Save upserts the session document in a single statement, so answers and
// the step pointer always land together.
func (r *SessionRepo) Save(sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session for user %d: %w", sess.UserID, err)
	}

	query := `
		INSERT INTO sessions (user_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	_, err = r.db.Exec(query, sess.UserID, data)
	return err
}

// Delete removes a user's session.
func (r *SessionRepo) Delete(userID int64) error {
	query := `DELETE FROM sessions WHERE user_id = $1`
	_, err := r.db.Exec(query, userID)
	return err
}

// DeleteSubmittedBefore archives submitted sessions older than the given
// number of days. Unsubmitted sessions are kept forever.
func (r *SessionRepo) DeleteSubmittedBefore(days int) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE data->>'submittedAt' IS NOT NULL
			AND updated_at < NOW() - INTERVAL '1 day' * $1
	`
	res, err := r.db.Exec(query, days)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
