package inventory

import (
	"context"

	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger is the single writer for sellable quantity. Stock moves only
// through the conditional updates below, and only inside a transaction
// owned by the calling operation.
type Ledger struct{}

// NewLedger exposes the default ledger implementation.
func NewLedger() Ledger {
	return Ledger{}
}

// Decrement reduces stock for a product, or for a specific variant when
// variantID is set. The update is conditional on sufficient stock: losing a
// race for the last unit surfaces as a retryable conflict, never negative
// inventory.
func (Ledger) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory decrement")
	}

	var res *gorm.DB
	if variantID != nil {
		res = tx.WithContext(ctx).Exec(`
			UPDATE product_variants
			SET stock_quantity = stock_quantity - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND product_id = ? AND stock_quantity >= ?
		`, qty, *variantID, productID, qty)
	} else {
		res = tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_quantity = stock_quantity - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock_quantity >= ?
		`, qty, productID, qty)
	}
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeTxConflict, "insufficient stock").WithDetails(map[string]any{
			"product_id": productID,
			"variant_id": variantID,
			"requested":  qty,
		})
	}
	return nil
}

// Increment returns stock to a product or variant, e.g. when a pending
// order is cancelled.
func (Ledger) Increment(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "increment quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory increment")
	}

	var res *gorm.DB
	if variantID != nil {
		res = tx.WithContext(ctx).Exec(`
			UPDATE product_variants
			SET stock_quantity = stock_quantity + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND product_id = ?
		`, qty, *variantID, productID)
	} else {
		res = tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_quantity = stock_quantity + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, qty, productID)
	}
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
	}
	return nil
}
