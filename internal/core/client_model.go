package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ClientCategory classifies a client for withholding purposes.
type ClientCategory string

const (
	CategoryIndividual   ClientCategory = "INDIVIDUAL"
	CategoryCompany      ClientCategory = "COMPANY"
	CategoryGovernment   ClientCategory = "GOVERNMENT"
	CategoryPublicEntity ClientCategory = "PUBLIC_ENTITY"
	CategoryNonResident  ClientCategory = "NON_RESIDENT"
)

// Valid reports whether c is one of the known categories.
func (c ClientCategory) Valid() bool {
	switch c {
	case CategoryIndividual, CategoryCompany, CategoryGovernment, CategoryPublicEntity, CategoryNonResident:
		return true
	}
	return false
}

// TaxRegime is the income tax regime a client is registered under.
// The zero value means no regime was recorded.
type TaxRegime string

const (
	RegimeReal       TaxRegime = "REAL"
	RegimeSimplified TaxRegime = "SIMPLIFIED"
	RegimeExempt     TaxRegime = "EXEMPT"
)

// Valid reports whether r is blank or one of the known regimes.
func (r TaxRegime) Valid() bool {
	switch r {
	case "", RegimeReal, RegimeSimplified, RegimeExempt:
		return true
	}
	return false
}

// Client is the buyer on a purchase order. Category, residency and regime are
// fixed at creation and feed every later withholding decision.
type Client struct {
	ID                int            `json:"id"`
	Name              string         `json:"name"`
	Address           string         `json:"address"`
	TaxIdentification string         `json:"tax_identification"`
	Category          ClientCategory `json:"client_type"`
	TaxRegime         TaxRegime      `json:"tax_regime"`
	IsResident        bool           `json:"is_resident"`
	IsVATRegistered   bool           `json:"is_vat_registered"`
	CreatedAt         time.Time      `json:"created_at"`
}

// IsPublic reports whether the client is the state, a local authority or a
// public entity.
func (c *Client) IsPublic() bool {
	return c.Category == CategoryGovernment || c.Category == CategoryPublicEntity
}

// Product is a catalog entry. UnitPrice and TaxRate are the current catalog
// values; order items snapshot them when first priced.
type Product struct {
	ID        int             `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tva_rate"`
	CreatedAt time.Time       `json:"created_at"`
}

// ClientInput holds the fields required to create a client.
type ClientInput struct {
	Name              string
	Address           string
	TaxIdentification string
	Category          ClientCategory
	TaxRegime         TaxRegime
	IsResident        bool
	IsVATRegistered   bool
}

// Validate checks the enumerations and required fields of a client input.
func (in ClientInput) Validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !in.Category.Valid() {
		return &ValidationError{Field: "client_type", Value: string(in.Category), Reason: "unknown client category"}
	}
	if !in.TaxRegime.Valid() {
		return &ValidationError{Field: "tax_regime", Value: string(in.TaxRegime), Reason: "unknown tax regime"}
	}
	return nil
}

// ProductInput holds the fields required to create a catalog product.
// A nil TaxRate takes the catalog default of 19%.
type ProductInput struct {
	Code      string
	Name      string
	UnitPrice decimal.Decimal
	TaxRate   *decimal.Decimal
}

// DefaultProductTaxRate is the VAT rate assigned to products created without one.
var DefaultProductTaxRate = decimal.RequireFromString("19.00")

// Validate checks a product input.
func (in ProductInput) Validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if in.UnitPrice.IsNegative() {
		return &ValidationError{Field: "unit_price", Value: in.UnitPrice.String(), Reason: "must not be negative"}
	}
	if !in.UnitPrice.Equal(RoundRate(in.UnitPrice)) {
		return &ValidationError{Field: "unit_price", Value: in.UnitPrice.String(), Reason: "catalog prices allow at most 2 decimal places"}
	}
	if in.TaxRate != nil && !inPercentRange(*in.TaxRate) {
		return &ValidationError{Field: "tva_rate", Value: in.TaxRate.String(), Reason: "must be between 0 and 100"}
	}
	return nil
}

// ClientService provides client and catalog master data operations.
type ClientService interface {
	// CreateClient inserts a new client.
	CreateClient(ctx context.Context, input ClientInput) (*Client, error)

	// GetClient returns a client by ID.
	GetClient(ctx context.Context, clientID int) (*Client, error)

	// GetClients returns all clients ordered by name.
	GetClients(ctx context.Context) ([]Client, error)

	// DeleteClient removes a client. Returns ErrClientInUse if any purchase
	// order still references it.
	DeleteClient(ctx context.Context, clientID int) error

	// CreateProduct inserts a new catalog product.
	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)

	// GetProduct returns a catalog product by ID.
	GetProduct(ctx context.Context, productID int) (*Product, error)

	// GetProducts returns the whole catalog ordered by name.
	GetProducts(ctx context.Context) ([]Product, error)
}
