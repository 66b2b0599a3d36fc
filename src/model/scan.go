package model

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ScanStatus is the lifecycle state of one detection scan.
// Transitions: scheduled -> in_progress -> {completed | failed}.
type ScanStatus string

const (
	ScanScheduled  ScanStatus = "scheduled"
	ScanInProgress ScanStatus = "in_progress"
	ScanCompleted  ScanStatus = "completed"
	ScanFailed     ScanStatus = "failed"
)

var (
	ErrScanNotClaimable = errors.New("scan is not in a claimable state")
	ErrScanNotFound     = errors.New("scan not found")
)

// Scan is one end-to-end detection run for a user. Attempts is the
// persisted retry counter; the scheduler stops rescheduling once it
// reaches the configured cap.
type Scan struct {
	ID          string       `json:"id"`
	UserID      int64        `json:"user_id"`
	Status      ScanStatus   `json:"status"`
	Reason      string       `json:"reason,omitempty"` // human-readable failure reason
	Attempts    int          `json:"attempts"`
	ScheduledAt time.Time    `json:"scheduled_at"`
	StartedAt   sql.NullTime `json:"started_at"`
	FinishedAt  sql.NullTime `json:"finished_at"`
}

// EnqueueScan creates a scheduled scan for a user unless one is already
// scheduled or running, which keeps at most one scan per user in
// flight. Returns the pending scan either way. The read-then-insert can
// race with a concurrent enqueue; the uq_scans_user_pending index
// rejects the second insert and the winner's scan is returned instead.
func EnqueueScan(db *sql.DB, userID int64, runAt time.Time) (*Scan, error) {
	if existing, err := GetPendingScan(db, userID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrScanNotFound) {
		return nil, err
	}

	s := &Scan{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      ScanScheduled,
		ScheduledAt: runAt,
	}
	_, err := db.Exec(`
		INSERT INTO scans (id, user_id, status, reason, attempts, scheduled_at)
		VALUES (?, ?, ?, '', 0, ?)`,
		s.ID, s.UserID, s.Status, s.ScheduledAt)
	if isUniqueConstraint(err) {
		return GetPendingScan(db, userID)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func isUniqueConstraint(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// GetPendingScan returns the user's scheduled or running scan, if any.
func GetPendingScan(db *sql.DB, userID int64) (*Scan, error) {
	return scanFromRow(db.QueryRow(`
		SELECT id, user_id, status, reason, attempts, scheduled_at, started_at, finished_at
		FROM scans
		WHERE user_id = ? AND status IN (?, ?)
		ORDER BY scheduled_at LIMIT 1`, userID, ScanScheduled, ScanInProgress))
}

func GetScanByID(db *sql.DB, id string) (*Scan, error) {
	return scanFromRow(db.QueryRow(`
		SELECT id, user_id, status, reason, attempts, scheduled_at, started_at, finished_at
		FROM scans WHERE id = ?`, id))
}

// GetDueScans returns scheduled scans whose run time has passed.
func GetDueScans(db *sql.DB, now time.Time, limit int) ([]Scan, error) {
	rows, err := db.Query(`
		SELECT id, user_id, status, reason, attempts, scheduled_at, started_at, finished_at
		FROM scans
		WHERE status = ? AND scheduled_at <= ?
		ORDER BY scheduled_at LIMIT ?`, ScanScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		var s Scan
		if err := rows.Scan(&s.ID, &s.UserID, &s.Status, &s.Reason, &s.Attempts,
			&s.ScheduledAt, &s.StartedAt, &s.FinishedAt); err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

// Claim moves the scan from scheduled to in_progress and bumps the
// attempt counter. The guarded UPDATE is the concurrency gate: if
// another worker already claimed it, zero rows match and
// ErrScanNotClaimable is returned.
func (s *Scan) Claim(db *sql.DB) error {
	res, err := db.Exec(`
		UPDATE scans SET status = ?, started_at = ?, attempts = attempts + 1
		WHERE id = ? AND status = ?`,
		ScanInProgress, time.Now(), s.ID, ScanScheduled)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScanNotClaimable
	}
	s.Status = ScanInProgress
	s.Attempts++
	return nil
}

// MarkCompleted finishes a running scan successfully.
func (s *Scan) MarkCompleted(db *sql.DB) error {
	return s.finish(db, ScanCompleted, "")
}

// MarkFailed finishes a running scan with a human-readable reason
// ("reconnect your bank", not a stack trace).
func (s *Scan) MarkFailed(db *sql.DB, reason string) error {
	return s.finish(db, ScanFailed, reason)
}

func (s *Scan) finish(db *sql.DB, status ScanStatus, reason string) error {
	res, err := db.Exec(`
		UPDATE scans SET status = ?, reason = ?, finished_at = ?
		WHERE id = ? AND status = ?`,
		status, reason, time.Now(), s.ID, ScanInProgress)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScanNotFound
	}
	s.Status = status
	s.Reason = reason
	return nil
}

// Reschedule puts a failed scan back in the queue with a backoff
// delay. The attempt counter carries over, so the retry cap holds
// across reschedules.
func (s *Scan) Reschedule(db *sql.DB, runAt time.Time) error {
	res, err := db.Exec(`
		UPDATE scans SET status = ?, scheduled_at = ?, started_at = NULL, finished_at = NULL
		WHERE id = ? AND status = ?`,
		ScanScheduled, runAt, s.ID, ScanFailed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScanNotFound
	}
	s.Status = ScanScheduled
	s.ScheduledAt = runAt
	return nil
}

func scanFromRow(row *sql.Row) (*Scan, error) {
	var s Scan
	err := row.Scan(&s.ID, &s.UserID, &s.Status, &s.Reason, &s.Attempts,
		&s.ScheduledAt, &s.StartedAt, &s.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
