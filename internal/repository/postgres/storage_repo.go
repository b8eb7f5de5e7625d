// internal/repository/postgres/storage_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"panel-service/internal/domain/listquery"
	"panel-service/internal/domain/storage"
	xerrors "panel-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StorageRepository struct {
	db *pgxpool.Pool
}

func NewStorageRepository(db *pgxpool.Pool) *StorageRepository {
	return &StorageRepository{db: db}
}

const storageColumns = `id, size, price_admin_annual, price_admin_monthly,
	price_member_annual, price_member_monthly, account_id, created_at, updated_at`

func scanStorage(row pgx.Row, p *storage.StoragePlan) error {
	return row.Scan(
		&p.ID, &p.Size, &p.PriceAdminAnnual, &p.PriceAdminMonthly,
		&p.PriceMemberAnnual, &p.PriceMemberMonthly, &p.AccountID, &p.CreatedAt, &p.UpdatedAt,
	)
}

// Create inserts a storage plan
func (r *StorageRepository) Create(ctx context.Context, p *storage.StoragePlan) error {
	query := `
		INSERT INTO storages (
			size, price_admin_annual, price_admin_monthly,
			price_member_annual, price_member_monthly
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		p.Size, p.PriceAdminAnnual, p.PriceAdminMonthly, p.PriceMemberAnnual, p.PriceMemberMonthly,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("storage size %d: %w", p.Size, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create storage plan: %w", err)
	}

	return nil
}

// FindByID retrieves a storage plan by ID
func (r *StorageRepository) FindByID(ctx context.Context, id int64) (*storage.StoragePlan, error) {
	query := `SELECT ` + storageColumns + ` FROM storages WHERE id = $1`

	var p storage.StoragePlan
	err := scanStorage(r.db.QueryRow(ctx, query, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.NotFound("storage plan", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find storage plan: %w", err)
	}

	return &p, nil
}

// Update replaces size and prices in place
func (r *StorageRepository) Update(ctx context.Context, p *storage.StoragePlan) error {
	query := `
		UPDATE storages
		SET size = $1, price_admin_annual = $2, price_admin_monthly = $3,
		    price_member_annual = $4, price_member_monthly = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		p.Size, p.PriceAdminAnnual, p.PriceAdminMonthly, p.PriceMemberAnnual, p.PriceMemberMonthly, p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.NotFound("storage plan", p.ID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("storage size %d: %w", p.Size, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update storage plan: %w", err)
	}

	return nil
}

// Delete removes a storage plan permanently
func (r *StorageRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM storages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete storage plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.NotFound("storage plan", id)
	}

	return nil
}

// ExistsBySize checks the size against every plan except excludeID
func (r *StorageRepository) ExistsBySize(ctx context.Context, size int64, excludeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM storages WHERE size = $1 AND id <> $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, size, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check storage size: %w", err)
	}
	return exists, nil
}

// List returns one page of plans ordered by size
func (r *StorageRepository) List(ctx context.Context, q listquery.Query) ([]storage.StoragePlan, int64, error) {
	where, args := buildStorageFilter(q)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM storages`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count storage plans: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM storages%s ORDER BY size ASC, id ASC LIMIT $%d OFFSET $%d`,
		storageColumns, where, len(args)+1, len(args)+2)
	args = append(args, q.PerPage, q.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list storage plans: %w", err)
	}
	defer rows.Close()

	items := []storage.StoragePlan{}
	for rows.Next() {
		var p storage.StoragePlan
		if err := scanStorage(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("failed to scan storage plan: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate storage plans: %w", err)
	}

	return items, total, nil
}

// Stats returns count and size bounds; bounds are 0 on an empty table
func (r *StorageRepository) Stats(ctx context.Context) (*storage.Stats, error) {
	query := `SELECT COUNT(*), COALESCE(MIN(size), 0), COALESCE(MAX(size), 0) FROM storages`

	var stats storage.Stats
	if err := r.db.QueryRow(ctx, query).Scan(&stats.Total, &stats.MinSize, &stats.MaxSize); err != nil {
		return nil, fmt.Errorf("failed to get storage stats: %w", err)
	}
	return &stats, nil
}

// Count returns the number of storage plans
func (r *StorageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM storages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count storage plans: %w", err)
	}
	return n, nil
}

// ========== Query Builders ==========

// buildStorageFilter matches search as a substring of the size's decimal text,
// so "10" finds 10, 100 and 210.
func buildStorageFilter(q listquery.Query) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf("CAST(size AS TEXT) LIKE $%d", len(args)+1))
		args = append(args, listquery.Contains(q.Search))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
