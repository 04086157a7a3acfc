package cart

import (
	"context"
	"testing"

	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCartRepo struct {
	items   []models.CartItem
	listErr error
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error) {
	return s.items, s.listErr
}

func (s *stubCartRepo) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.CartItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindLine(ctx context.Context, customerID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	return item, nil
}

func (s *stubCartRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return nil
}

func (s *stubCartRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubCartRepo) DeleteAllByCustomer(ctx context.Context, customerID uuid.UUID) error {
	return nil
}

func activeProduct(vendorID uuid.UUID, priceCents int64, stock int) *models.Product {
	return &models.Product{
		ID:            uuid.New(),
		VendorID:      vendorID,
		Name:          "Linen Sofa",
		PriceCents:    priceCents,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func cartLine(product *models.Product, qty int) models.CartItem {
	return models.CartItem{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		ProductID:  product.ID,
		Quantity:   qty,
		Product:    product,
	}
}

func TestValidateEmptyCart(t *testing.T) {
	validator, err := NewValidator(&stubCartRepo{})
	require.NoError(t, err)

	_, err = validator.Validate(context.Background(), uuid.New())
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	require.Contains(t, appErr.Message(), "cart is empty")
}

func TestValidateHappyPath(t *testing.T) {
	vendorID := uuid.New()
	product := activeProduct(vendorID, 20000, 10)

	variantProduct := activeProduct(vendorID, 20000, 0)
	variantProduct.HasVariants = true

	variantPrice := int64(25000)
	variant := &models.ProductVariant{
		ID:            uuid.New(),
		ProductID:     variantProduct.ID,
		Name:          "Emerald velvet",
		PriceCents:    &variantPrice,
		StockQuantity: 3,
		IsActive:      true,
	}

	variantID := variant.ID
	repo := &stubCartRepo{items: []models.CartItem{
		cartLine(product, 2),
		{
			ID:         uuid.New(),
			CustomerID: uuid.New(),
			ProductID:  variantProduct.ID,
			VariantID:  &variantID,
			Quantity:   1,
			Product:    variantProduct,
			Variant:    variant,
		},
	}}

	validator, err := NewValidator(repo)
	require.NoError(t, err)

	lines, err := validator.Validate(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	require.Equal(t, int64(20000), lines[0].UnitPriceCents)
	require.Equal(t, 2, lines[0].Quantity)
	require.Nil(t, lines[0].VariantID)

	require.Equal(t, int64(25000), lines[1].UnitPriceCents)
	require.NotNil(t, lines[1].VariantID)
	require.Equal(t, variant.ID, *lines[1].VariantID)
	require.NotNil(t, lines[1].VariantName)
	require.Equal(t, "Emerald velvet", *lines[1].VariantName)
}

func TestValidateCollectsAllFailures(t *testing.T) {
	vendorID := uuid.New()

	inactive := activeProduct(vendorID, 10000, 5)
	inactive.IsActive = false

	lowStock := activeProduct(vendorID, 15000, 1)

	missing := cartLine(activeProduct(vendorID, 5000, 5), 1)
	missing.Product = nil

	repo := &stubCartRepo{items: []models.CartItem{
		cartLine(inactive, 1),
		cartLine(lowStock, 4),
		missing,
	}}

	validator, err := NewValidator(repo)
	require.NoError(t, err)

	_, err = validator.Validate(context.Background(), uuid.New())
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	failures, ok := details["lines"].([]LineFailure)
	require.True(t, ok)
	require.Len(t, failures, 3)

	reasons := map[string]bool{}
	for _, f := range failures {
		reasons[f.Reason] = true
	}
	require.True(t, reasons[FailureProductInactive])
	require.True(t, reasons[FailureInsufficientStock])
	require.True(t, reasons[FailureProductMissing])
}

func TestValidateVariantRules(t *testing.T) {
	vendorID := uuid.New()

	parent := activeProduct(vendorID, 30000, 0)
	parent.HasVariants = true

	inactiveVariant := &models.ProductVariant{
		ID:            uuid.New(),
		ProductID:     parent.ID,
		Name:          "Discontinued finish",
		StockQuantity: 5,
		IsActive:      false,
	}

	noVariantLine := cartLine(parent, 1)

	inactiveVariantID := inactiveVariant.ID
	repo := &stubCartRepo{items: []models.CartItem{
		noVariantLine,
		{
			ID:        uuid.New(),
			ProductID: parent.ID,
			VariantID: &inactiveVariantID,
			Quantity:  1,
			Product:   parent,
			Variant:   inactiveVariant,
		},
	}}

	validator, err := NewValidator(repo)
	require.NoError(t, err)

	_, err = validator.Validate(context.Background(), uuid.New())
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)

	failures := appErr.Details().(map[string]any)["lines"].([]LineFailure)
	require.Len(t, failures, 2)
	require.Equal(t, FailureVariantRequired, failures[0].Reason)
	require.Equal(t, FailureVariantInactive, failures[1].Reason)
}
