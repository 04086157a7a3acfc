package cart

import (
	"context"

	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/google/uuid"
)

// Failure reasons reported per cart line. The validator never stops at the
// first problem so the client can render every broken line at once.
const (
	FailureProductMissing    = "product_missing"
	FailureProductInactive   = "product_inactive"
	FailureVariantMissing    = "variant_missing"
	FailureVariantInactive   = "variant_inactive"
	FailureVariantMismatch   = "variant_mismatch"
	FailureVariantRequired   = "variant_required"
	FailureInsufficientStock = "insufficient_stock"
)

// ValidatedLine is a cart line that passed validation, with the price and
// vendor resolved at validation time.
type ValidatedLine struct {
	CartItemID     uuid.UUID
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	VendorID       uuid.UUID
	ProductName    string
	VariantName    *string
	UnitPriceCents int64
	Quantity       int
	AvailableStock int
}

// LineFailure describes why a single cart line cannot be purchased.
type LineFailure struct {
	CartItemID   uuid.UUID  `json:"cart_item_id"`
	ProductID    uuid.UUID  `json:"product_id"`
	VariantID    *uuid.UUID `json:"variant_id,omitempty"`
	Reason       string     `json:"reason"`
	RequestedQty int        `json:"requested_qty"`
	AvailableQty int        `json:"available_qty"`
}

// Validator re-checks every cart line against the live catalog.
type Validator struct {
	cart Repository
}

// NewValidator builds a cart validator.
func NewValidator(cart Repository) (*Validator, error) {
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository is required")
	}
	return &Validator{cart: cart}, nil
}

// Validate loads the customer's cart and checks every line against current
// product state. It returns the priced lines on success, or a validation
// error carrying one detail entry per failing line. The stock check here is
// advisory: the authoritative check is the conditional decrement inside the
// checkout transaction.
func (v *Validator) Validate(ctx context.Context, customerID uuid.UUID) ([]ValidatedLine, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	items, err := v.cart.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var (
		lines    []ValidatedLine
		failures []LineFailure
	)
	for _, item := range items {
		line, failure := validateLine(item)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		lines = append(lines, *line)
	}

	if len(failures) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains unavailable items").
			WithDetails(map[string]any{"lines": failures})
	}
	return lines, nil
}

func validateLine(item models.CartItem) (*ValidatedLine, *LineFailure) {
	fail := func(reason string, available int) *LineFailure {
		return &LineFailure{
			CartItemID:   item.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			Reason:       reason,
			RequestedQty: item.Quantity,
			AvailableQty: available,
		}
	}

	product := item.Product
	if product == nil {
		return nil, fail(FailureProductMissing, 0)
	}
	if !product.IsActive {
		return nil, fail(FailureProductInactive, 0)
	}

	if item.VariantID == nil {
		if product.HasVariants {
			return nil, fail(FailureVariantRequired, 0)
		}
		if product.StockQuantity < item.Quantity {
			return nil, fail(FailureInsufficientStock, product.StockQuantity)
		}
		return &ValidatedLine{
			CartItemID:     item.ID,
			ProductID:      product.ID,
			VendorID:       product.VendorID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
			AvailableStock: product.StockQuantity,
		}, nil
	}

	variant := item.Variant
	if variant == nil {
		return nil, fail(FailureVariantMissing, 0)
	}
	if variant.ProductID != product.ID {
		return nil, fail(FailureVariantMismatch, 0)
	}
	if !variant.IsActive {
		return nil, fail(FailureVariantInactive, 0)
	}
	if variant.StockQuantity < item.Quantity {
		return nil, fail(FailureInsufficientStock, variant.StockQuantity)
	}

	variantID := variant.ID
	variantName := variant.Name
	return &ValidatedLine{
		CartItemID:     item.ID,
		ProductID:      product.ID,
		VariantID:      &variantID,
		VendorID:       product.VendorID,
		ProductName:    product.Name,
		VariantName:    &variantName,
		UnitPriceCents: variant.EffectivePriceCents(product),
		Quantity:       item.Quantity,
		AvailableStock: variant.StockQuantity,
	}, nil
}
