package services

import (
	"context"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"pixiu/internal/database"
	"pixiu/internal/models"
)

const (
	cacheKeySources = "fund:sources"
	cacheKeyClasses = "fund:classes"
)

// FundService is the ledger storage and aggregation engine. Every read
// accepts a FundFilter and all four query shapes (listing, count, grouped
// sums, sign-partitioned totals) apply identical filter semantics through
// buildFundWhere.
type FundService struct {
	db    *database.DB
	cache *cache.Cache
}

// NewFundService creates a new fund service
func NewFundService(db *database.DB) *FundService {
	return &FundService{
		db:    db,
		cache: cache.New(10*time.Minute, 30*time.Minute),
	}
}

// Insert creates a ledger entry. The id is auto-assigned by storage.
func (s *FundService) Insert(ctx context.Context, info models.FundInfo) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO fund_info (amount, name, class, timestamp, source) VALUES (?, ?, ?, ?, ?)",
		info.Amount, info.Name, info.Class, info.Timestamp, info.Source)
	if err != nil {
		return fmt.Errorf("failed to insert fund entry: %w", err)
	}
	s.invalidateDistinctCache()
	return nil
}

// Update rewrites an entry addressed by id.
func (s *FundService) Update(ctx context.Context, id uint32, info models.FundInfo) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE fund_info SET amount = ?, name = ?, class = ?, timestamp = ?, source = ? WHERE id = ?",
		info.Amount, info.Name, info.Class, info.Timestamp, info.Source, id)
	if err != nil {
		return fmt.Errorf("failed to update fund entry %d: %w", id, err)
	}
	s.invalidateDistinctCache()
	return nil
}

// Delete removes an entry addressed by id.
func (s *FundService) Delete(ctx context.Context, id uint32) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM fund_info WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete fund entry %d: %w", id, err)
	}
	s.invalidateDistinctCache()
	return nil
}

// List returns one page of entries ordered by timestamp descending with
// id ascending as tiebreak, so pagination stays stable for entries that
// share a timestamp. Pages are 1-based.
func (s *FundService) List(ctx context.Context, f models.FundFilter, page, size int) ([]models.FundInfo, error) {
	where, args := buildFundWhere(f)
	offset := (page - 1) * size
	query := fmt.Sprintf(
		"SELECT id, name, amount, class, timestamp, source FROM fund_info %s ORDER BY timestamp DESC, id ASC LIMIT ? OFFSET ?",
		where)
	args = append(args, size, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fund entries: %w", err)
	}
	defer rows.Close()

	entries := []models.FundInfo{}
	for rows.Next() {
		var e models.FundInfo
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount, &e.Class, &e.Timestamp, &e.Source); err != nil {
			return nil, fmt.Errorf("failed to scan fund row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the total number of entries matching the filter.
func (s *FundService) Count(ctx context.Context, f models.FundFilter) (int, error) {
	where, args := buildFundWhere(f)
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fund_info "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count fund entries: %w", err)
	}
	return count, nil
}

// GroupedExpenseSums returns the summed expense magnitude per class,
// restricted to classes whose net magnitude is strictly positive. A class
// that nets to zero or is income-only is omitted. Rounding to 2 decimal
// places happens once on the summed value, never per row.
func (s *FundService) GroupedExpenseSums(ctx context.Context, f models.FundFilter) ([]models.SumInfo, error) {
	where, args := buildFundWhere(f)
	query := fmt.Sprintf(
		`SELECT class AS name, ROUND(SUM(-amount), 2) AS value
		FROM fund_info %s
		GROUP BY class HAVING SUM(-amount) > 0`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense sums: %w", err)
	}
	defer rows.Close()

	sums := []models.SumInfo{}
	for rows.Next() {
		var sum models.SumInfo
		if err := rows.Scan(&sum.Name, &sum.Value); err != nil {
			return nil, fmt.Errorf("failed to scan sum row: %w", err)
		}
		sums = append(sums, sum)
	}
	return sums, rows.Err()
}

// IncomeTotal sums entries with positive amount, rounded to 2 decimal
// places at the boundary.
func (s *FundService) IncomeTotal(ctx context.Context, f models.FundFilter) (float64, error) {
	return s.signedTotal(ctx, f, "amount > 0")
}

// ExpenseTotal sums entries with negative amount, rounded to 2 decimal
// places at the boundary. The result is negative or zero.
func (s *FundService) ExpenseTotal(ctx context.Context, f models.FundFilter) (float64, error) {
	return s.signedTotal(ctx, f, "amount < 0")
}

func (s *FundService) signedTotal(ctx context.Context, f models.FundFilter, signPredicate string) (float64, error) {
	where, args := buildFundWhere(f)
	query := fmt.Sprintf(
		"SELECT ROUND(COALESCE(SUM(amount), 0), 2) FROM fund_info %s AND %s",
		where, signPredicate)

	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to query signed total: %w", err)
	}
	return total, nil
}

// Sources returns the distinct source accounts seen in the ledger.
// The list is cached in-process and invalidated on writes.
func (s *FundService) Sources(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, cacheKeySources, "SELECT DISTINCT source FROM fund_info")
}

// Classes returns the distinct entry classes seen in the ledger.
func (s *FundService) Classes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, cacheKeyClasses, "SELECT DISTINCT class FROM fund_info")
}

func (s *FundService) distinct(ctx context.Context, cacheKey, query string) ([]string, error) {
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.([]string), nil
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct values: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, values, cache.DefaultExpiration)
	return values, nil
}

func (s *FundService) invalidateDistinctCache() {
	s.cache.Delete(cacheKeySources)
	s.cache.Delete(cacheKeyClasses)
}

// Debts returns all tracked debts.
func (s *FundService) Debts(ctx context.Context) ([]models.DebtInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, amount, repayment, last_timestamp FROM debt_info")
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	debts := []models.DebtInfo{}
	for rows.Next() {
		var d models.DebtInfo
		if err := rows.Scan(&d.ID, &d.Name, &d.Amount, &d.Repayment, &d.LastTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan debt row: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// Properties returns each account with its current balance: the base
// amount plus the sum of all fund entries booked against it.
func (s *FundService) Properties(ctx context.Context) ([]models.PropertyInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			ppi.id,
			ppi.name,
			(ppi.amount + COALESCE(SUM(pfi.amount), 0)) AS amount
		FROM property_info ppi
		LEFT JOIN fund_info pfi ON pfi.source = ppi.name
		GROUP BY ppi.id, ppi.name, ppi.amount`)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	properties := []models.PropertyInfo{}
	for rows.Next() {
		var p models.PropertyInfo
		if err := rows.Scan(&p.ID, &p.Name, &p.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}
