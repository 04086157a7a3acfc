package checkout

import (
	"github.com/furnhaus/furnhaus-backend/pkg/config"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Pricing holds the fixed money knobs applied to every vendor order.
// All arithmetic happens in integer cents; fractional results round
// half away from zero.
type Pricing struct {
	taxRate          decimal.Decimal
	shippingFeeCents int64
}

// NewPricing parses the configured tax rate and validates the knobs.
func NewPricing(cfg config.CheckoutConfig) (Pricing, error) {
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Pricing{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parsing checkout tax rate")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Pricing{}, pkgerrors.New(pkgerrors.CodeDependency, "checkout tax rate must be between 0 and 1")
	}
	if cfg.ShippingFeeCents < 0 {
		return Pricing{}, pkgerrors.New(pkgerrors.CodeDependency, "shipping fee must not be negative")
	}
	return Pricing{taxRate: rate, shippingFeeCents: cfg.ShippingFeeCents}, nil
}

// TaxCents computes the tax for a vendor-order subtotal.
func (p Pricing) TaxCents(subtotalCents int64) int64 {
	return decimal.NewFromInt(subtotalCents).Mul(p.taxRate).Round(0).IntPart()
}

// ShippingCents returns the flat per-vendor-order shipping fee.
func (p Pricing) ShippingCents() int64 {
	return p.shippingFeeCents
}

// CommissionCents computes the marketplace cut of a vendor-order subtotal
// using the vendor's commission rate frozen at order time.
func CommissionCents(subtotalCents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotalCents).Mul(rate).Round(0).IntPart()
}
