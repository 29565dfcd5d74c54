package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const paymentColumns = `
	wp.id, wp.purchase_order_id, po.reference, wt.code, wt.name,
	wp.amount, wp.payment_date, wp.is_paid_to_treasury, wp.treasury_payment_ref, wp.created_at`

const paymentJoins = `
	FROM withholding_tax_payments wp
	JOIN purchase_orders po ON po.id = wp.purchase_order_id
	JOIN withholding_tax_types wt ON wt.id = wp.tax_type_id`

type withholdingService struct {
	pool  *pgxpool.Pool
	rules RuleEngine
	log   *zap.Logger
}

// NewWithholdingService constructs a WithholdingService backed by PostgreSQL.
func NewWithholdingService(pool *pgxpool.Pool, rules RuleEngine, log *zap.Logger) WithholdingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &withholdingService{pool: pool, rules: rules, log: log}
}

// GetTaxTypes returns all withholding tax types.
func (s *withholdingService) GetTaxTypes(ctx context.Context) ([]WithholdingTaxType, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, code, rate, is_liberatory, is_definitive,
		       applies_to_client_types, minimum_amount, COALESCE(description, '')
		FROM withholding_tax_types
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list withholding tax types: %w", err)
	}
	defer rows.Close()

	var types []WithholdingTaxType
	for rows.Next() {
		var t WithholdingTaxType
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Code, &t.Rate, &t.IsLiberatory, &t.IsDefinitive,
			&t.AppliesToClientTypes, &t.MinimumAmount, &t.Description,
		); err != nil {
			return nil, fmt.Errorf("scan withholding tax type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// RecordPayment records the withheld amount of an order.
func (s *withholdingService) RecordPayment(ctx context.Context, orderID int, paymentDate time.Time) (*WithholdingTaxPayment, error) {
	if paymentDate.IsZero() {
		return nil, &ValidationError{Field: "payment_date", Reason: "required"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := getOrder(ctx, tx, "po.id = $1", orderID, true)
	if err != nil {
		return nil, err
	}
	if !po.WithholdingApplied || !po.WithholdingAmount.IsPositive() {
		return nil, fmt.Errorf("purchase order %s: %w", po.Reference, ErrWithholdingNotApplied)
	}
	client, err := getClient(ctx, tx, po.ClientID)
	if err != nil {
		return nil, err
	}
	table, err := s.rules.ResolveRateTable(ctx)
	if err != nil {
		return nil, err
	}
	decision := DecideWithholding(po, client, table)

	var taxTypeID int
	if err := tx.QueryRow(ctx,
		"SELECT id FROM withholding_tax_types WHERE code = $1 ORDER BY id LIMIT 1",
		decision.TaxTypeCode,
	).Scan(&taxTypeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("withholding tax type %s: %w", decision.TaxTypeCode, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve withholding tax type %s: %w", decision.TaxTypeCode, err)
	}

	var paymentID int
	err = tx.QueryRow(ctx, `
		INSERT INTO withholding_tax_payments (purchase_order_id, tax_type_id, amount, payment_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (purchase_order_id) DO NOTHING
		RETURNING id`,
		po.ID, taxTypeID, po.WithholdingAmount, paymentDate,
	).Scan(&paymentID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Already recorded for this order.
		if err := tx.QueryRow(ctx,
			"SELECT id FROM withholding_tax_payments WHERE purchase_order_id = $1", po.ID,
		).Scan(&paymentID); err != nil {
			return nil, fmt.Errorf("fetch existing withholding payment: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("insert withholding payment: %w", err)
	default:
		s.log.Info("withholding payment recorded",
			zap.Int("order_id", po.ID),
			zap.String("tax_type", decision.TaxTypeCode),
			zap.String("amount", FormatAmount(po.WithholdingAmount)),
		)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit withholding payment: %w", err)
	}
	return s.getPayment(ctx, paymentID)
}

// GetPayments returns recorded payments, newest first.
func (s *withholdingService) GetPayments(ctx context.Context, orderID int) ([]WithholdingTaxPayment, error) {
	query := `SELECT ` + paymentColumns + paymentJoins
	args := []any{}
	if orderID > 0 {
		query += " WHERE wp.purchase_order_id = $1"
		args = append(args, orderID)
	}
	query += " ORDER BY wp.payment_date DESC, wp.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list withholding payments: %w", err)
	}
	defer rows.Close()

	var payments []WithholdingTaxPayment
	for rows.Next() {
		var p WithholdingTaxPayment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("scan withholding payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkRemitted flags a payment as paid to the treasury.
func (s *withholdingService) MarkRemitted(ctx context.Context, paymentID int, treasuryRef string) (*WithholdingTaxPayment, error) {
	if treasuryRef == "" {
		return nil, &ValidationError{Field: "treasury_payment_ref", Reason: "required"}
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE withholding_tax_payments
		SET is_paid_to_treasury = true, treasury_payment_ref = $1
		WHERE id = $2`,
		treasuryRef, paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark withholding payment %d remitted: %w", paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("withholding payment %d: %w", paymentID, ErrNotFound)
	}
	return s.getPayment(ctx, paymentID)
}

func (s *withholdingService) getPayment(ctx context.Context, paymentID int) (*WithholdingTaxPayment, error) {
	p := &WithholdingTaxPayment{}
	row := s.pool.QueryRow(ctx, `SELECT `+paymentColumns+paymentJoins+` WHERE wp.id = $1`, paymentID)
	if err := scanPayment(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("withholding payment %d: %w", paymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("get withholding payment %d: %w", paymentID, err)
	}
	return p, nil
}

func scanPayment(row rowScanner, p *WithholdingTaxPayment) error {
	return row.Scan(
		&p.ID, &p.OrderID, &p.OrderReference, &p.TaxTypeCode, &p.TaxTypeName,
		&p.Amount, &p.PaymentDate, &p.IsPaidToTreasury, &p.TreasuryPaymentRef, &p.CreatedAt,
	)
}
