package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/industrialdt/aashub/internal/aas"
)

// AppendActivity writes one entry to the audit trail.
func (s *Store) AppendActivity(ctx context.Context, activity aas.Activity) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(activity.Identifier) == "" {
		return fmt.Errorf("activity identifier is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO activities (type, action, identifier, filename, detail, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(activity.Type), string(activity.Action), activity.Identifier,
		activity.Filename, activity.Detail, toMillis(activity.Timestamp))
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListActivities returns the newest entries first, capped at limit,
// plus the total size of the trail.
func (s *Store) ListActivities(ctx context.Context, limit int) ([]aas.Activity, int64, error) {
	if err := s.ready(ctx); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be greater than zero")
	}

	var total int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT seq, type, action, identifier, filename, detail, timestamp
		FROM activities ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]aas.Activity, 0, limit)
	for rows.Next() {
		var activity aas.Activity
		var activityType, action string
		var timestamp int64
		if err := rows.Scan(&activity.Seq, &activityType, &action,
			&activity.Identifier, &activity.Filename, &activity.Detail, &timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan activity: %w", err)
		}
		activity.Type = aas.ActivityType(activityType)
		activity.Action = aas.Action(action)
		activity.Timestamp = fromMillis(timestamp)
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, total, nil
}

func appendActivityTx(ctx context.Context, tx *sql.Tx, activity aas.Activity) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO activities (type, action, identifier, filename, detail, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(activity.Type), string(activity.Action), activity.Identifier,
		activity.Filename, activity.Detail, toMillis(activity.Timestamp))
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}
