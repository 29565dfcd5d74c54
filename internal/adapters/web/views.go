package web

import (
	"time"

	"procurement/internal/app"
	"procurement/internal/core"
)

// JSON views render amounts at their fixed scale: three decimals for money,
// two for rates and quantities.

type orderView struct {
	ID                         int        `json:"id"`
	Reference                  string     `json:"reference"`
	ClientID                   int        `json:"client_id"`
	ClientName                 string     `json:"client_name"`
	Status                     string     `json:"status"`
	OrderType                  string     `json:"order_type"`
	OrderTypeLabel             string     `json:"order_type_label"`
	Notes                      string     `json:"notes"`
	ExpectedFinishDate         string     `json:"expected_finish_date,omitempty"`
	PaymentDate                string     `json:"payment_date,omitempty"`
	Items                      []itemView `json:"items"`
	TotalHT                    string     `json:"total_ht"`
	TotalTVA                   string     `json:"total_tva"`
	TotalTTC                   string     `json:"total_ttc"`
	WithholdingTaxAmount       string     `json:"withholding_tax_amount"`
	WithholdingTaxRate         string     `json:"withholding_tax_rate"`
	WithholdingTaxApplied      bool       `json:"withholding_tax_applied"`
	WithholdingTaxExcluded     bool       `json:"withholding_tax_excluded"`
	WithholdingExclusionReason string     `json:"withholding_exclusion_reason"`
	NetAmountToPay             string     `json:"net_amount_to_pay"`
	CreatedAt                  *time.Time `json:"created_at,omitempty"`
	UpdatedAt                  *time.Time `json:"updated_at,omitempty"`
}

type itemView struct {
	ID             int    `json:"id,omitempty"`
	ProductID      int    `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       string `json:"quantity"`
	Remise         string `json:"remise"`
	UnitPrice      string `json:"unit_price"`
	TVARate        string `json:"tva_rate"`
	DiscountAmount string `json:"discount_amount"`
	TotalHT        string `json:"total_ht"`
	TVAAmount      string `json:"tva_amount"`
	TotalTTC       string `json:"total_ttc"`
}

func newOrderView(po *core.PurchaseOrder) orderView {
	v := orderView{
		ID:                         po.ID,
		Reference:                  po.Reference,
		ClientID:                   po.ClientID,
		ClientName:                 po.ClientName,
		Status:                     string(po.Status),
		OrderType:                  string(po.OrderType),
		OrderTypeLabel:             po.OrderType.Label(),
		Notes:                      po.Notes,
		Items:                      make([]itemView, 0, len(po.Items)),
		TotalHT:                    core.FormatAmount(po.TotalHT),
		TotalTVA:                   core.FormatAmount(po.TotalTVA),
		TotalTTC:                   core.FormatAmount(po.TotalTTC),
		WithholdingTaxAmount:       core.FormatAmount(po.WithholdingAmount),
		WithholdingTaxRate:         core.FormatRate(po.WithholdingRate),
		WithholdingTaxApplied:      po.WithholdingApplied,
		WithholdingTaxExcluded:     po.WithholdingExcluded,
		WithholdingExclusionReason: po.WithholdingExclusionReason,
		NetAmountToPay:             core.FormatAmount(po.NetAmountToPay()),
	}
	if po.ExpectedFinishDate != nil {
		v.ExpectedFinishDate = po.ExpectedFinishDate.Format(time.DateOnly)
	}
	if po.PaymentDate != nil {
		v.PaymentDate = po.PaymentDate.Format(time.DateOnly)
	}
	if !po.CreatedAt.IsZero() {
		v.CreatedAt = &po.CreatedAt
		v.UpdatedAt = &po.UpdatedAt
	}
	for _, it := range po.Items {
		iv := itemView{
			ID:             it.ID,
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       core.FormatRate(it.Quantity),
			Remise:         core.FormatRate(it.Discount),
			DiscountAmount: core.FormatAmount(it.DiscountAmount),
			TotalHT:        core.FormatAmount(it.TotalHT),
			TVAAmount:      core.FormatAmount(it.TaxAmount),
			TotalTTC:       core.FormatAmount(it.TotalTTC),
		}
		if it.UnitPrice != nil {
			iv.UnitPrice = core.FormatAmount(*it.UnitPrice)
		}
		if it.TaxRate != nil {
			iv.TVARate = core.FormatRate(*it.TaxRate)
		}
		v.Items = append(v.Items, iv)
	}
	return v
}

func newOrderViews(orders []core.PurchaseOrder) []orderView {
	out := make([]orderView, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderView(&orders[i]))
	}
	return out
}

type quoteView struct {
	Order       orderView `json:"order"`
	Basis       string    `json:"withholding_basis,omitempty"`
	TaxTypeCode string    `json:"withholding_tax_type,omitempty"`
}

func newQuoteView(q *app.QuoteResult) quoteView {
	return quoteView{
		Order:       newOrderView(q.Order),
		Basis:       string(q.Decision.Basis),
		TaxTypeCode: q.Decision.TaxTypeCode,
	}
}

type productView struct {
	ID        int       `json:"id"`
	Code      string    `json:"code,omitempty"`
	Name      string    `json:"name"`
	UnitPrice string    `json:"unit_price"`
	TVARate   string    `json:"tva_rate"`
	CreatedAt time.Time `json:"created_at"`
}

func newProductView(p *core.Product) productView {
	return productView{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		UnitPrice: core.FormatAmount(p.UnitPrice),
		TVARate:   core.FormatRate(p.TaxRate),
		CreatedAt: p.CreatedAt,
	}
}

type taxTypeView struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name"`
	Code                 string `json:"code"`
	Rate                 string `json:"rate"`
	IsLiberatory         bool   `json:"is_liberatory"`
	IsDefinitive         bool   `json:"is_definitive"`
	AppliesToClientTypes string `json:"applies_to_client_types"`
	MinimumAmount        string `json:"minimum_amount"`
	Description          string `json:"description,omitempty"`
}

func newTaxTypeView(t core.WithholdingTaxType) taxTypeView {
	return taxTypeView{
		ID:                   t.ID,
		Name:                 t.Name,
		Code:                 t.Code,
		Rate:                 core.FormatRate(t.Rate),
		IsLiberatory:         t.IsLiberatory,
		IsDefinitive:         t.IsDefinitive,
		AppliesToClientTypes: t.AppliesToClientTypes,
		MinimumAmount:        core.FormatAmount(t.MinimumAmount),
		Description:          t.Description,
	}
}

type paymentView struct {
	ID                 int    `json:"id"`
	OrderID            int    `json:"purchase_order_id"`
	OrderReference     string `json:"purchase_order_reference"`
	TaxTypeCode        string `json:"tax_type_code"`
	TaxTypeName        string `json:"tax_type_name"`
	Amount             string `json:"amount"`
	PaymentDate        string `json:"payment_date"`
	IsPaidToTreasury   bool   `json:"is_paid_to_treasury"`
	TreasuryPaymentRef string `json:"treasury_payment_ref,omitempty"`
}

func newPaymentView(p *core.WithholdingTaxPayment) paymentView {
	return paymentView{
		ID:                 p.ID,
		OrderID:            p.OrderID,
		OrderReference:     p.OrderReference,
		TaxTypeCode:        p.TaxTypeCode,
		TaxTypeName:        p.TaxTypeName,
		Amount:             core.FormatAmount(p.Amount),
		PaymentDate:        p.PaymentDate.Format(time.DateOnly),
		IsPaidToTreasury:   p.IsPaidToTreasury,
		TreasuryPaymentRef: p.TreasuryPaymentRef,
	}
}

type dashboardView struct {
	Year           int            `json:"year"`
	ThisYear       []string       `json:"this_year_sales"`
	LastYear       []string       `json:"last_year_sales"`
	StatusCounts   map[string]int `json:"status_counts"`
	ConfirmedCount int            `json:"confirmed_count"`
	TotalRevenue   string         `json:"total_revenue"`
}

func newDashboardView(d *app.DashboardResult) dashboardView {
	v := dashboardView{
		Year:           d.Sales.Year,
		ThisYear:       make([]string, len(d.Sales.ThisYear)),
		LastYear:       make([]string, len(d.Sales.LastYear)),
		StatusCounts:   make(map[string]int, len(d.StatusCounts)),
		ConfirmedCount: d.ConfirmedCount,
		TotalRevenue:   core.FormatAmount(d.TotalRevenue),
	}
	for i := range d.Sales.ThisYear {
		v.ThisYear[i] = core.FormatAmount(d.Sales.ThisYear[i])
		v.LastYear[i] = core.FormatAmount(d.Sales.LastYear[i])
	}
	for status, n := range d.StatusCounts {
		v.StatusCounts[string(status)] = n
	}
	return v
}
