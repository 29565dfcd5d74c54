package app

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"procurement/internal/core"
)

// Amounts travel as strings so they keep their exact decimal form.

// CreateOrderRequest is the input for creating a purchase order.
type CreateOrderRequest struct {
	Reference          string        `json:"reference" jsonschema_description:"Unique external order reference, at most 50 characters"`
	ClientID           int           `json:"client_id" jsonschema_description:"ID of the buying client"`
	OrderType          string        `json:"order_type,omitempty" jsonschema_description:"GOODS, SERVICES, WORKS, SUBSCRIPTION, INSURANCE, LEASING, FEES, RENT or COMMISSION. Defaults to GOODS."`
	Notes              string        `json:"notes,omitempty"`
	ExpectedFinishDate string        `json:"expected_finish_date,omitempty" jsonschema_description:"Optional date in YYYY-MM-DD format"`
	Items              []ItemRequest `json:"items,omitempty"`
}

// UpdateOrderRequest is the input for editing an order header.
type UpdateOrderRequest struct {
	Reference          string `json:"reference"`
	ClientID           int    `json:"client_id"`
	OrderType          string `json:"order_type,omitempty"`
	Notes              string `json:"notes,omitempty"`
	ExpectedFinishDate string `json:"expected_finish_date,omitempty" jsonschema_description:"Optional date in YYYY-MM-DD format"`
}

// ItemRequest is one order line.
type ItemRequest struct {
	ProductID int    `json:"product_id" jsonschema_description:"Catalog product the line is priced from"`
	Quantity  string `json:"quantity" jsonschema_description:"Quantity with at most 2 decimals. Defaults to 1."`
	Remise    string `json:"remise,omitempty" jsonschema_description:"Discount percentage between 0 and 100"`
	UnitPrice string `json:"unit_price,omitempty" jsonschema_description:"Unit price with at most 3 decimals. Empty takes the catalog price."`
	TVARate   string `json:"tva_rate,omitempty" jsonschema_description:"VAT percentage between 0 and 100. Empty takes the catalog rate."`
}

// QuoteRequest prices an order without storing it.
type QuoteRequest struct {
	Reference string         `json:"reference,omitempty"`
	OrderType string         `json:"order_type,omitempty"`
	Client    ClientRequest  `json:"client"`
	Products  []QuoteProduct `json:"products,omitempty" jsonschema_description:"Catalog entries the items may be priced from"`
	Items     []ItemRequest  `json:"items"`
}

// QuoteProduct is a catalog entry supplied inline with a quote.
type QuoteProduct struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	UnitPrice string `json:"unit_price" jsonschema_description:"Catalog price with at most 2 decimals"`
	TVARate   string `json:"tva_rate,omitempty" jsonschema_description:"VAT percentage. Defaults to 19."`
}

// ClientRequest is the input for creating a client.
type ClientRequest struct {
	Name              string `json:"name"`
	Address           string `json:"address,omitempty"`
	TaxIdentification string `json:"tax_identification,omitempty"`
	ClientType        string `json:"client_type" jsonschema_description:"INDIVIDUAL, COMPANY, GOVERNMENT, PUBLIC_ENTITY or NON_RESIDENT"`
	TaxRegime         string `json:"tax_regime,omitempty" jsonschema_description:"REAL, SIMPLIFIED, EXEMPT or empty"`
	IsResident        *bool  `json:"is_resident,omitempty" jsonschema_description:"Defaults to true"`
	IsVATRegistered   *bool  `json:"is_vat_registered,omitempty" jsonschema_description:"Defaults to true"`
}

// ProductRequest is the input for creating a catalog product.
type ProductRequest struct {
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price" jsonschema_description:"Catalog price with at most 2 decimals"`
	TVARate   string `json:"tva_rate,omitempty" jsonschema_description:"VAT percentage. Defaults to 19."`
}

// PaymentRequest records a withholding payment.
type PaymentRequest struct {
	PaymentDate string `json:"payment_date" jsonschema_description:"Date in YYYY-MM-DD format"`
}

// RemitRequest flags a withholding payment as remitted to the treasury.
type RemitRequest struct {
	TreasuryPaymentRef string `json:"treasury_payment_ref"`
}

var one = decimal.NewFromInt(1)

func (r CreateOrderRequest) toInput() (core.OrderInput, error) {
	in, err := UpdateOrderRequest{
		Reference:          r.Reference,
		ClientID:           r.ClientID,
		OrderType:          r.OrderType,
		Notes:              r.Notes,
		ExpectedFinishDate: r.ExpectedFinishDate,
	}.toInput()
	if err != nil {
		return core.OrderInput{}, err
	}
	for _, item := range r.Items {
		it, err := item.toInput()
		if err != nil {
			return core.OrderInput{}, err
		}
		in.Items = append(in.Items, it)
	}
	return in, nil
}

func (r UpdateOrderRequest) toInput() (core.OrderInput, error) {
	in := core.OrderInput{
		Reference: strings.TrimSpace(r.Reference),
		ClientID:  r.ClientID,
		OrderType: core.OrderType(strings.ToUpper(strings.TrimSpace(r.OrderType))),
		Notes:     r.Notes,
	}
	if r.ExpectedFinishDate != "" {
		d, err := parseDate("expected_finish_date", r.ExpectedFinishDate)
		if err != nil {
			return core.OrderInput{}, err
		}
		in.ExpectedFinishDate = &d
	}
	return in, nil
}

func (r ItemRequest) toInput() (core.ItemInput, error) {
	in := core.ItemInput{ProductID: r.ProductID, Quantity: one}
	var err error
	if strings.TrimSpace(r.Quantity) != "" {
		if in.Quantity, err = core.ParseDecimal("quantity", r.Quantity, core.RateScale); err != nil {
			return core.ItemInput{}, err
		}
	}
	if in.Discount, err = core.ParseDecimal("remise", r.Remise, core.RateScale); err != nil {
		return core.ItemInput{}, err
	}
	if in.UnitPrice, err = optionalDecimal("unit_price", r.UnitPrice, core.AmountScale); err != nil {
		return core.ItemInput{}, err
	}
	if in.TaxRate, err = optionalDecimal("tva_rate", r.TVARate, core.RateScale); err != nil {
		return core.ItemInput{}, err
	}
	return in, nil
}

func (r ClientRequest) toInput() core.ClientInput {
	in := core.ClientInput{
		Name:              strings.TrimSpace(r.Name),
		Address:           r.Address,
		TaxIdentification: r.TaxIdentification,
		Category:          core.ClientCategory(strings.ToUpper(strings.TrimSpace(r.ClientType))),
		TaxRegime:         core.TaxRegime(strings.ToUpper(strings.TrimSpace(r.TaxRegime))),
		IsResident:        true,
		IsVATRegistered:   true,
	}
	if r.IsResident != nil {
		in.IsResident = *r.IsResident
	}
	if r.IsVATRegistered != nil {
		in.IsVATRegistered = *r.IsVATRegistered
	}
	return in
}

// Catalog prices are stored at RateScale; line snapshots widen them to AmountScale.
func (r ProductRequest) toInput() (core.ProductInput, error) {
	price, err := core.ParseDecimal("unit_price", r.UnitPrice, core.RateScale)
	if err != nil {
		return core.ProductInput{}, err
	}
	rate, err := optionalDecimal("tva_rate", r.TVARate, core.RateScale)
	if err != nil {
		return core.ProductInput{}, err
	}
	return core.ProductInput{
		Code:      strings.TrimSpace(r.Code),
		Name:      strings.TrimSpace(r.Name),
		UnitPrice: price,
		TaxRate:   rate,
	}, nil
}

func (p QuoteProduct) toProduct() (*core.Product, error) {
	price, err := core.ParseDecimal("unit_price", p.UnitPrice, core.RateScale)
	if err != nil {
		return nil, err
	}
	rate := core.DefaultProductTaxRate
	if r, err := optionalDecimal("tva_rate", p.TVARate, core.RateScale); err != nil {
		return nil, err
	} else if r != nil {
		rate = *r
	}
	return &core.Product{ID: p.ID, Name: p.Name, UnitPrice: price, TaxRate: rate}, nil
}

func optionalDecimal(field, raw string, scale int32) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := core.ParseDecimal(field, raw, scale)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDate(field, raw string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: field, Value: raw, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}
