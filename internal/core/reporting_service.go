package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MonthlySales holds tax-inclusive sales per payment month for a year and
// the year before it. Index 0 is January.
type MonthlySales struct {
	Year     int                 `json:"year"`
	ThisYear [12]decimal.Decimal `json:"this_year"`
	LastYear [12]decimal.Decimal `json:"last_year"`
}

// StatusCounts maps each order status to the number of orders in it.
// DRAFT, PAID and CANCELLED are always present.
type StatusCounts map[OrderStatus]int

// ReportingService provides read-only dashboard queries over purchase orders.
type ReportingService interface {
	// MonthlySales buckets the TTC of paid orders by payment month for year
	// and year-1.
	MonthlySales(ctx context.Context, year int) (*MonthlySales, error)

	// StatusCounts returns the number of orders per status.
	StatusCounts(ctx context.Context) (StatusCounts, error)

	// ConfirmedCount returns the number of CONFIRMED orders.
	ConfirmedCount(ctx context.Context) (int, error)

	// TotalRevenue returns the sum of TTC over all orders.
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by PostgreSQL.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

// MonthlySales groups paid orders by the year and month of payment_date.
func (s *reportingService) MonthlySales(ctx context.Context, year int) (*MonthlySales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM payment_date)::int,
		       EXTRACT(MONTH FROM payment_date)::int,
		       COALESCE(SUM(total_ttc), 0)
		FROM purchase_orders
		WHERE payment_date IS NOT NULL
		  AND EXTRACT(YEAR FROM payment_date) IN ($1, $2)
		GROUP BY 1, 2`,
		year, year-1,
	)
	if err != nil {
		return nil, fmt.Errorf("query monthly sales: %w", err)
	}
	defer rows.Close()

	report := &MonthlySales{Year: year}
	for i := range report.ThisYear {
		report.ThisYear[i] = decimal.Zero
		report.LastYear[i] = decimal.Zero
	}
	for rows.Next() {
		var (
			y, m  int
			total decimal.Decimal
		)
		if err := rows.Scan(&y, &m, &total); err != nil {
			return nil, fmt.Errorf("scan monthly sales: %w", err)
		}
		if m < 1 || m > 12 {
			continue
		}
		if y == year {
			report.ThisYear[m-1] = RoundAmount(total)
		} else {
			report.LastYear[m-1] = RoundAmount(total)
		}
	}
	return report, rows.Err()
}

// StatusCounts returns order counts per status.
func (s *reportingService) StatusCounts(ctx context.Context) (StatusCounts, error) {
	rows, err := s.pool.Query(ctx, "SELECT status, COUNT(*) FROM purchase_orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := StatusCounts{StatusDraft: 0, StatusPaid: 0, StatusCancelled: 0}
	for rows.Next() {
		var (
			status OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ConfirmedCount returns the number of CONFIRMED orders.
func (s *reportingService) ConfirmedCount(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM purchase_orders WHERE status = $1", StatusConfirmed,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count confirmed orders: %w", err)
	}
	return n, nil
}

// TotalRevenue returns the sum of TTC over all orders.
func (s *reportingService) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(total_ttc), 0) FROM purchase_orders",
	).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum order totals: %w", err)
	}
	return RoundAmount(total), nil
}
