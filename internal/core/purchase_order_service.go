package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const orderColumns = `
	po.id, po.reference, po.client_id, c.name, po.status, po.order_type, po.notes,
	po.expected_finish_date, po.payment_date,
	po.total_ht, po.total_tva, po.total_ttc,
	po.withholding_tax_amount, po.withholding_tax_rate,
	po.withholding_tax_applied, po.withholding_tax_excluded, po.withholding_exclusion_reason,
	po.created_at, po.updated_at`

type purchaseOrderService struct {
	pool    *pgxpool.Pool
	rules   RuleEngine
	log     *zap.Logger
	metrics *Metrics
}

// NewPurchaseOrderService constructs a PurchaseOrderService backed by PostgreSQL.
func NewPurchaseOrderService(pool *pgxpool.Pool, rules RuleEngine, log *zap.Logger, metrics *Metrics) PurchaseOrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &purchaseOrderService{pool: pool, rules: rules, log: log, metrics: metrics}
}

// CreateOrder inserts a DRAFT order with zero totals, adds the initial items
// and recomputes before commit.
func (s *purchaseOrderService) CreateOrder(ctx context.Context, input OrderInput) (*PurchaseOrder, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	orderType := input.OrderType
	if orderType == "" {
		orderType = OrderGoods
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	client, err := getClient(ctx, tx, input.ClientID)
	if err != nil {
		return nil, err
	}

	po := &PurchaseOrder{
		Reference:          input.Reference,
		ClientID:           client.ID,
		ClientName:         client.Name,
		Status:             StatusDraft,
		OrderType:          orderType,
		Notes:              input.Notes,
		ExpectedFinishDate: input.ExpectedFinishDate,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (reference, client_id, status, order_type, notes, expected_finish_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		po.Reference, po.ClientID, po.Status, po.OrderType, po.Notes, po.ExpectedFinishDate,
	).Scan(&po.ID, &po.CreatedAt, &po.UpdatedAt); err != nil {
		return nil, mapWriteError(fmt.Sprintf("insert purchase order %q", po.Reference), err)
	}

	for i, in := range input.Items {
		item, err := newItem(in)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		po.Items = append(po.Items, item)
	}

	if err := s.recomputeInTx(ctx, tx, po, client, "create"); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order: %w", err)
	}
	return s.GetOrder(ctx, po.ID)
}

// UpdateOrder edits the header of an order and recomputes it, since a new
// client or order type can change the withholding decision.
func (s *purchaseOrderService) UpdateOrder(ctx context.Context, orderID int, input OrderInput) (*PurchaseOrder, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, orderID, "update", func(tx pgx.Tx, po *PurchaseOrder, client **Client) error {
		if input.ClientID != po.ClientID {
			c, err := getClient(ctx, tx, input.ClientID)
			if err != nil {
				return err
			}
			*client = c
			po.ClientID = c.ID
			po.ClientName = c.Name
		}
		po.Reference = input.Reference
		if input.OrderType != "" {
			po.OrderType = input.OrderType
		}
		po.Notes = input.Notes
		po.ExpectedFinishDate = input.ExpectedFinishDate

		if _, err := tx.Exec(ctx, `
			UPDATE purchase_orders
			SET reference = $1, client_id = $2, order_type = $3, notes = $4, expected_finish_date = $5
			WHERE id = $6`,
			po.Reference, po.ClientID, po.OrderType, po.Notes, po.ExpectedFinishDate, po.ID,
		); err != nil {
			return mapWriteError(fmt.Sprintf("update purchase order %d", po.ID), err)
		}
		return nil
	})
}

// DeleteOrder removes an order; its items go with it.
func (s *purchaseOrderService) DeleteOrder(ctx context.Context, orderID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM purchase_orders WHERE id = $1", orderID)
	if err != nil {
		return fmt.Errorf("delete purchase order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase order %d: %w", orderID, ErrNotFound)
	}
	return nil
}

// AddItem appends a line and recomputes the order.
func (s *purchaseOrderService) AddItem(ctx context.Context, orderID int, input ItemInput) (*PurchaseOrder, error) {
	item, err := newItem(input)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, orderID, "item_added", func(tx pgx.Tx, po *PurchaseOrder, _ **Client) error {
		item.OrderID = po.ID
		po.Items = append(po.Items, item)
		return nil
	})
}

// UpdateItem edits a line and recomputes the order. Switching product drops
// the old snapshots unless new ones are supplied.
func (s *purchaseOrderService) UpdateItem(ctx context.Context, orderID, itemID int, input ItemInput) (*PurchaseOrder, error) {
	return s.mutate(ctx, orderID, "item_updated", func(tx pgx.Tx, po *PurchaseOrder, _ **Client) error {
		it := po.item(itemID)
		if it == nil {
			return fmt.Errorf("item %d on purchase order %d: %w", itemID, orderID, ErrNotFound)
		}
		if input.ProductID != 0 && input.ProductID != it.ProductID {
			it.ProductID = input.ProductID
			it.UnitPrice = nil
			it.TaxRate = nil
		}
		it.Quantity = input.Quantity
		it.Discount = input.Discount
		if input.UnitPrice != nil {
			p := *input.UnitPrice
			it.UnitPrice = &p
		}
		if input.TaxRate != nil {
			r := *input.TaxRate
			it.TaxRate = &r
		}
		return nil
	})
}

// RemoveItem deletes a line and recomputes the order.
func (s *purchaseOrderService) RemoveItem(ctx context.Context, orderID, itemID int) (*PurchaseOrder, error) {
	return s.mutate(ctx, orderID, "item_removed", func(tx pgx.Tx, po *PurchaseOrder, _ **Client) error {
		kept := po.Items[:0]
		found := false
		for _, it := range po.Items {
			if it.ID == itemID {
				found = true
				continue
			}
			kept = append(kept, it)
		}
		if !found {
			return fmt.Errorf("item %d on purchase order %d: %w", itemID, orderID, ErrNotFound)
		}
		po.Items = kept

		if _, err := tx.Exec(ctx,
			"DELETE FROM purchase_order_items WHERE id = $1 AND order_id = $2",
			itemID, orderID,
		); err != nil {
			return fmt.Errorf("delete item %d: %w", itemID, err)
		}
		return nil
	})
}

// Recompute reruns the pipeline against the stored items.
func (s *purchaseOrderService) Recompute(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	return s.mutate(ctx, orderID, "manual", func(pgx.Tx, *PurchaseOrder, **Client) error {
		return nil
	})
}

// Confirm moves a DRAFT order to CONFIRMED.
func (s *purchaseOrderService) Confirm(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	return s.transition(ctx, orderID, (*PurchaseOrder).Confirm)
}

// MarkDelivered records delivery.
func (s *purchaseOrderService) MarkDelivered(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	return s.transition(ctx, orderID, (*PurchaseOrder).MarkDelivered)
}

// Cancel moves an unpaid order to CANCELLED.
func (s *purchaseOrderService) Cancel(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	return s.transition(ctx, orderID, (*PurchaseOrder).Cancel)
}

// MarkPaid sets status PAID and records the payment date without recomputing.
func (s *purchaseOrderService) MarkPaid(ctx context.Context, orderID int, paymentDate time.Time) (*PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(po *PurchaseOrder) error {
		return po.MarkPaid(paymentDate)
	})
}

// GetOrder returns an order by ID, including items.
func (s *purchaseOrderService) GetOrder(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	return getOrder(ctx, s.pool, "po.id = $1", orderID, false)
}

// GetOrderByReference returns an order by its external reference.
func (s *purchaseOrderService) GetOrderByReference(ctx context.Context, reference string) (*PurchaseOrder, error) {
	return getOrder(ctx, s.pool, "po.reference = $1", reference, false)
}

// GetOrders returns orders newest first, optionally filtered by status.
func (s *purchaseOrderService) GetOrders(ctx context.Context, status OrderStatus) ([]PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + `
		FROM purchase_orders po
		JOIN clients c ON c.id = po.client_id`
	args := []any{}
	if status != "" {
		query += " WHERE po.status = $1"
		args = append(args, status)
	}
	query += " ORDER BY po.created_at DESC, po.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := scanOrder(rows, &po); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return orders, nil
}

// mutate locks an order, applies fn to the loaded aggregate, reruns the
// pipeline and persists item and order caches in one transaction.
func (s *purchaseOrderService) mutate(ctx context.Context, orderID int, trigger string,
	fn func(tx pgx.Tx, po *PurchaseOrder, client **Client) error) (*PurchaseOrder, error) {

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := getOrder(ctx, tx, "po.id = $1", orderID, true)
	if err != nil {
		return nil, err
	}
	client, err := getClient(ctx, tx, po.ClientID)
	if err != nil {
		return nil, err
	}

	if err := fn(tx, po, &client); err != nil {
		return nil, err
	}

	if err := s.recomputeInTx(ctx, tx, po, client, trigger); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order %d: %w", orderID, err)
	}
	return s.GetOrder(ctx, orderID)
}

// transition locks an order and applies a lifecycle step. Amounts are never
// touched.
func (s *purchaseOrderService) transition(ctx context.Context, orderID int, step func(*PurchaseOrder) error) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := getOrder(ctx, tx, "po.id = $1", orderID, true)
	if err != nil {
		return nil, err
	}

	from := po.Status
	if err := step(po); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $1, payment_date = $2, updated_at = NOW()
		WHERE id = $3`,
		po.Status, po.PaymentDate, po.ID,
	); err != nil {
		return nil, fmt.Errorf("update purchase order %d status to %s: %w", po.ID, po.Status, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status change: %w", err)
	}

	if from != po.Status {
		s.metrics.observeTransition(from, po.Status)
		s.log.Info("purchase order status changed",
			zap.Int("order_id", po.ID),
			zap.String("reference", po.Reference),
			zap.String("from", string(from)),
			zap.String("to", string(po.Status)),
		)
	}
	return s.GetOrder(ctx, orderID)
}

// recomputeInTx prices every item, rebuilds totals and withholding, then
// writes item caches before order caches.
func (s *purchaseOrderService) recomputeInTx(ctx context.Context, tx pgx.Tx, po *PurchaseOrder, client *Client, trigger string) error {
	table, err := s.rules.ResolveRateTable(ctx)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(ctx, tx, po.Items)
	if err != nil {
		return err
	}

	decision, err := Recompute(po, client, catalog, table)
	if err != nil {
		return err
	}

	for i := range po.Items {
		if err := saveItem(ctx, tx, po.ID, &po.Items[i]); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET total_ht = $1, total_tva = $2, total_ttc = $3,
		    withholding_tax_amount = $4, withholding_tax_rate = $5,
		    withholding_tax_applied = $6, withholding_tax_excluded = $7,
		    withholding_exclusion_reason = $8, updated_at = NOW()
		WHERE id = $9`,
		po.TotalHT, po.TotalTVA, po.TotalTTC,
		po.WithholdingAmount, po.WithholdingRate,
		po.WithholdingApplied, po.WithholdingExcluded,
		po.WithholdingExclusionReason, po.ID,
	); err != nil {
		return fmt.Errorf("update totals of purchase order %d: %w", po.ID, err)
	}

	s.metrics.observeRecompute(trigger, decision)
	s.log.Info("purchase order recomputed",
		zap.Int("order_id", po.ID),
		zap.String("trigger", trigger),
		zap.Int("items", len(po.Items)),
		zap.String("total_ttc", FormatAmount(po.TotalTTC)),
		zap.Bool("withholding_applied", decision.Applied),
		zap.String("withholding_rate", FormatRate(decision.Rate)),
		zap.String("withholding_amount", FormatAmount(decision.Amount)),
		zap.String("exclusion_reason", decision.Reason),
	)
	return nil
}

func newItem(in ItemInput) (PurchaseOrderItem, error) {
	if in.ProductID <= 0 {
		return PurchaseOrderItem{}, &ValidationError{Field: "product", Reason: "required"}
	}
	it := PurchaseOrderItem{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Discount:  in.Discount,
	}
	if in.UnitPrice != nil {
		p := *in.UnitPrice
		it.UnitPrice = &p
	}
	if in.TaxRate != nil {
		r := *in.TaxRate
		it.TaxRate = &r
	}
	return it, nil
}

func saveItem(ctx context.Context, q querier, orderID int, it *PurchaseOrderItem) error {
	if it.ID == 0 {
		if err := q.QueryRow(ctx, `
			INSERT INTO purchase_order_items
			            (order_id, product_id, quantity, discount, unit_price, tva_rate,
			             discount_amount, total_ht, tva_amount, total_ttc)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			orderID, it.ProductID, it.Quantity, it.Discount, it.UnitPrice, it.TaxRate,
			it.DiscountAmount, it.TotalHT, it.TaxAmount, it.TotalTTC,
		).Scan(&it.ID); err != nil {
			return mapWriteError(fmt.Sprintf("insert item for product %d", it.ProductID), err)
		}
		it.OrderID = orderID
		return nil
	}

	if _, err := q.Exec(ctx, `
		UPDATE purchase_order_items
		SET product_id = $1, quantity = $2, discount = $3, unit_price = $4, tva_rate = $5,
		    discount_amount = $6, total_ht = $7, tva_amount = $8, total_ttc = $9
		WHERE id = $10 AND order_id = $11`,
		it.ProductID, it.Quantity, it.Discount, it.UnitPrice, it.TaxRate,
		it.DiscountAmount, it.TotalHT, it.TaxAmount, it.TotalTTC,
		it.ID, orderID,
	); err != nil {
		return mapWriteError(fmt.Sprintf("update item %d", it.ID), err)
	}
	return nil
}

// loadCatalog fetches the products referenced by items.
func loadCatalog(ctx context.Context, q querier, items []PurchaseOrderItem) (Catalog, error) {
	catalog := make(Catalog, len(items))
	if len(items) == 0 {
		return catalog, nil
	}
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	rows, err := q.Query(ctx, `
		SELECT id, COALESCE(code, ''), name, unit_price, tva_rate, created_at
		FROM products
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.UnitPrice, &p.TaxRate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		catalog[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return catalog, nil
}

func getOrder(ctx context.Context, q querier, where string, arg any, forUpdate bool) (*PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + `
		FROM purchase_orders po
		JOIN clients c ON c.id = po.client_id
		WHERE ` + where
	if forUpdate {
		query += " FOR UPDATE OF po"
	}

	po := &PurchaseOrder{}
	if err := scanOrder(q.QueryRow(ctx, query, arg), po); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase order %v: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("get purchase order %v: %w", arg, err)
	}

	items, err := fetchItems(ctx, q, po.ID)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return po, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, po *PurchaseOrder) error {
	return row.Scan(
		&po.ID, &po.Reference, &po.ClientID, &po.ClientName, &po.Status, &po.OrderType, &po.Notes,
		&po.ExpectedFinishDate, &po.PaymentDate,
		&po.TotalHT, &po.TotalTVA, &po.TotalTTC,
		&po.WithholdingAmount, &po.WithholdingRate,
		&po.WithholdingApplied, &po.WithholdingExcluded, &po.WithholdingExclusionReason,
		&po.CreatedAt, &po.UpdatedAt,
	)
}

// fetchItems returns all items of an order in insertion order.
func fetchItems(ctx context.Context, q querier, orderID int) ([]PurchaseOrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, p.name,
		       i.quantity, i.discount, i.unit_price, i.tva_rate,
		       i.discount_amount, i.total_ht, i.tva_amount, i.total_ttc
		FROM purchase_order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch items for purchase order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := []PurchaseOrderItem{}
	for rows.Next() {
		var it PurchaseOrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.Discount, &it.UnitPrice, &it.TaxRate,
			&it.DiscountAmount, &it.TotalHT, &it.TaxAmount, &it.TotalTTC,
		); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch items for purchase order %d: %w", orderID, err)
	}
	return items, nil
}

func getClient(ctx context.Context, q querier, clientID int) (*Client, error) {
	c := &Client{}
	if err := q.QueryRow(ctx, `
		SELECT id, name, address, tax_identification, client_type, tax_regime,
		       is_resident, is_vat_registered, created_at
		FROM clients
		WHERE id = $1`,
		clientID,
	).Scan(
		&c.ID, &c.Name, &c.Address, &c.TaxIdentification, &c.Category, &c.TaxRegime,
		&c.IsResident, &c.IsVATRegistered, &c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %d: %w", clientID, ErrNotFound)
		}
		return nil, fmt.Errorf("get client %d: %w", clientID, err)
	}
	return c, nil
}

// mapWriteError translates constraint violations into domain errors.
func mapWriteError(action string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == "purchase_orders_reference_key" {
				return fmt.Errorf("%s: %w", action, ErrDuplicateReference)
			}
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: referenced record missing: %w", action, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}

