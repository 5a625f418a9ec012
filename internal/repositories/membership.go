package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// DefaultMembershipTTL applies when the caller configures no TTL.
const DefaultMembershipTTL = 24 * time.Hour

// MembershipRepository persists (playlist, video) membership facts to
// SQLite with a TTL, so facts survive process restarts but go stale rather
// than living forever. Expired rows read as cache misses.
type MembershipRepository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewMembershipRepository creates a repository with the given TTL.
// A non-positive TTL falls back to [DefaultMembershipTTL].
func NewMembershipRepository(db *sql.DB, ttl time.Duration) *MembershipRepository {
	if ttl <= 0 {
		ttl = DefaultMembershipTTL
	}
	return &MembershipRepository{db: db, ttl: ttl}
}

// Get returns the persisted fact for (playlistID, videoID). An expired or
// absent row returns ok=false.
func (r *MembershipRepository) Get(playlistID, videoID string) (member, ok bool, err error) {
	query := `
		SELECT member FROM memberships
		WHERE playlist_id = ? AND video_id = ? AND expires_at > ?
	`

	var value int
	scanErr := r.db.QueryRow(query, playlistID, videoID, time.Now().UTC()).Scan(&value)
	if scanErr == sql.ErrNoRows {
		return false, false, nil
	}
	if scanErr != nil {
		return false, false, fmt.Errorf("failed to query membership: %w", scanErr)
	}

	return value != 0, true, nil
}

// Put stores the fact for (playlistID, videoID), refreshing the TTL on
// conflict.
func (r *MembershipRepository) Put(playlistID, videoID string, member bool) error {
	query := `
		INSERT INTO memberships (playlist_id, video_id, member, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(playlist_id, video_id) DO UPDATE SET
			member = excluded.member,
			expires_at = excluded.expires_at
	`

	value := 0
	if member {
		value = 1
	}

	if _, err := r.db.Exec(query, playlistID, videoID, value, time.Now().UTC().Add(r.ttl)); err != nil {
		return fmt.Errorf("failed to store membership: %w", err)
	}

	return nil
}

// PurgeExpired deletes all expired rows and returns how many were removed.
func (r *MembershipRepository) PurgeExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM memberships WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge memberships: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// Count returns the number of unexpired rows.
func (r *MembershipRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM memberships WHERE expires_at > ?", time.Now().UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return count, nil
}
