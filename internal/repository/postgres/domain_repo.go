// internal/repository/postgres/domain_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"panel-service/internal/domain/domains"
	"panel-service/internal/domain/listquery"
	xerrors "panel-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DomainRepository struct {
	db *pgxpool.Pool
}

func NewDomainRepository(db *pgxpool.Pool) *DomainRepository {
	return &DomainRepository{db: db}
}

// sortable columns; request values never reach SQL directly
var domainSortColumns = map[string]string{
	"name":       "name",
	"privilege":  "privilege",
	"created_at": "created_at",
}

const domainColumns = `id, name, privilege, created_at, updated_at`

// Create inserts a domain and fills its ID and timestamps
func (r *DomainRepository) Create(ctx context.Context, d *domains.Domain) error {
	query := `
		INSERT INTO domains (name, privilege)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, d.Name, d.Privilege).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("domain name %q: %w", d.Name, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create domain: %w", err)
	}

	return nil
}

// FindByID retrieves a domain by ID
func (r *DomainRepository) FindByID(ctx context.Context, id int64) (*domains.Domain, error) {
	query := `SELECT ` + domainColumns + ` FROM domains WHERE id = $1`

	var d domains.Domain
	err := r.db.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Privilege, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.NotFound("domain", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find domain: %w", err)
	}

	return &d, nil
}

// Update rewrites name and privilege; created_at is left untouched
func (r *DomainRepository) Update(ctx context.Context, d *domains.Domain) error {
	query := `
		UPDATE domains
		SET name = $1, privilege = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, d.Name, d.Privilege, d.ID).Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.NotFound("domain", d.ID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("domain name %q: %w", d.Name, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update domain: %w", err)
	}

	return nil
}

// Delete removes a domain permanently
func (r *DomainRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM domains WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.NotFound("domain", id)
	}

	return nil
}

// ExistsByName checks the name against every domain except excludeID
func (r *DomainRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM domains WHERE name = $1 AND id <> $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check domain name: %w", err)
	}
	return exists, nil
}

// List returns one page of domains and the total matching count
func (r *DomainRepository) List(ctx context.Context, q listquery.Query) ([]domains.Domain, int64, error) {
	where, args := buildDomainFilter(q)

	var total int64
	countQuery := `SELECT COUNT(*) FROM domains` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count domains: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM domains%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		domainColumns, where, domainOrderBy(q), len(args)+1, len(args)+2)
	args = append(args, q.PerPage, q.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	items := []domains.Domain{}
	for rows.Next() {
		var d domains.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.Privilege, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan domain: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate domains: %w", err)
	}

	return items, total, nil
}

// Stats aggregates over the whole table, independent of any search
func (r *DomainRepository) Stats(ctx context.Context) (*domains.Stats, error) {
	var stats domains.Stats
	err := r.db.QueryRow(ctx, `SELECT COUNT(*), COUNT(DISTINCT privilege) FROM domains`).
		Scan(&stats.Total, &stats.TotalPrivileges)
	if err != nil {
		return nil, fmt.Errorf("failed to get domain stats: %w", err)
	}

	if stats.Total == 0 {
		return &stats, nil
	}

	// ties go to the privilege first seen (lowest id)
	query := `
		SELECT privilege, COUNT(*) AS occurrences
		FROM domains
		GROUP BY privilege
		ORDER BY occurrences DESC, MIN(id) ASC
		LIMIT 1
	`
	var mc domains.PrivilegeCount
	if err := r.db.QueryRow(ctx, query).Scan(&mc.Value, &mc.Count); err != nil {
		return nil, fmt.Errorf("failed to get most common privilege: %w", err)
	}
	stats.MostCommon = &mc

	return &stats, nil
}

// Count returns the number of domains
func (r *DomainRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM domains`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count domains: %w", err)
	}
	return n, nil
}

// ========== Query Builders ==========

func buildDomainFilter(q listquery.Query) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, listquery.Contains(q.Search))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func domainOrderBy(q listquery.Query) string {
	column, ok := domainSortColumns[q.Sort]
	if !ok {
		column = "name"
	}
	direction := "ASC"
	if q.Order == listquery.Desc {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, id ASC", column, direction)
}
