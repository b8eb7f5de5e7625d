// internal/repository/postgres/activity_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/listquery"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activitySelect = `
	SELECT a.id, a.log_name, a.description, COALESCE(a.event, ''), COALESCE(a.subject_type, ''),
	       a.subject_id, a.causer_id, COALESCE(u.name, ''), a.properties, a.created_at
	FROM activity_log a
	LEFT JOIN users u ON u.id = a.causer_id
`

func scanActivity(row pgx.Row, e *activity.Entry) error {
	var propsJSON []byte
	if err := row.Scan(
		&e.ID, &e.LogName, &e.Description, &e.Event, &e.SubjectType,
		&e.SubjectID, &e.CauserID, &e.CauserName, &propsJSON, &e.CreatedAt,
	); err != nil {
		return err
	}

	if len(propsJSON) > 0 {
		if err := json.Unmarshal(propsJSON, &e.Properties); err != nil {
			return fmt.Errorf("failed to unmarshal properties: %w", err)
		}
	}
	return nil
}

// Create appends an entry; ID and CreatedAt are filled from the store
func (r *ActivityRepository) Create(ctx context.Context, e *activity.Entry) error {
	props := e.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to marshal properties: %w", err)
	}

	query := `
		INSERT INTO activity_log (log_name, description, event, subject_type, subject_id, causer_id, properties)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.db.QueryRow(
		ctx, query,
		e.LogName, e.Description, e.Event, e.SubjectType, e.SubjectID, e.CauserID, propsJSON,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}

	return nil
}

// Latest returns the newest entry, or nil when the log is empty
func (r *ActivityRepository) Latest(ctx context.Context) (*activity.Entry, error) {
	query := activitySelect + ` ORDER BY a.created_at DESC, a.id DESC LIMIT 1`

	var e activity.Entry
	err := scanActivity(r.db.QueryRow(ctx, query), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest activity: %w", err)
	}

	return &e, nil
}

// List returns entries newest first
func (r *ActivityRepository) List(ctx context.Context, q listquery.Query) ([]activity.Entry, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activity entries: %w", err)
	}

	query := activitySelect + ` ORDER BY a.created_at DESC, a.id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, q.PerPage, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity entries: %w", err)
	}
	defer rows.Close()

	entries := []activity.Entry{}
	for rows.Next() {
		var e activity.Entry
		if err := scanActivity(rows, &e); err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate activity entries: %w", err)
	}

	return entries, total, nil
}
