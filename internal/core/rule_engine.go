package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RuleEngine resolves the withholding rate table in force from the
// withholding_tax_types table.
type RuleEngine interface {
	ResolveRateTable(ctx context.Context) (RateTable, error)
}

type ruleEngine struct {
	pool      *pgxpool.Pool
	overrides RateOverrides
}

// NewRuleEngine constructs a RuleEngine that reads each rate from its
// withholding tax type row unless overrides pins it.
func NewRuleEngine(pool *pgxpool.Pool, overrides RateOverrides) RuleEngine {
	return &ruleEngine{pool: pool, overrides: overrides}
}

// ResolveRateTable returns the statutory defaults with stored rates applied
// by tax type code and the pinned overrides applied last.
func (r *ruleEngine) ResolveRateTable(ctx context.Context) (RateTable, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, rate, minimum_amount
		FROM withholding_tax_types
		ORDER BY id`)
	if err != nil {
		return RateTable{}, fmt.Errorf("load withholding tax types: %w", err)
	}
	defer rows.Close()

	var stored []taxTypeRate
	for rows.Next() {
		var row taxTypeRate
		if err := rows.Scan(&row.code, &row.rate, &row.minimum); err != nil {
			return RateTable{}, fmt.Errorf("scan withholding tax type: %w", err)
		}
		stored = append(stored, row)
	}
	if err := rows.Err(); err != nil {
		return RateTable{}, fmt.Errorf("iterate withholding tax types: %w", err)
	}
	return resolveRates(stored, r.overrides), nil
}

type staticRules struct {
	table RateTable
}

// StaticRules returns a RuleEngine that always resolves table.
func StaticRules(table RateTable) RuleEngine {
	return staticRules{table: table}
}

func (s staticRules) ResolveRateTable(context.Context) (RateTable, error) {
	return s.table, nil
}
