package cart

import (
	"context"
	"errors"

	"github.com/furnhaus/furnhaus-backend/internal/products"
	"github.com/furnhaus/furnhaus-backend/pkg/db/models"
	pkgerrors "github.com/furnhaus/furnhaus-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddItemInput carries a request to put a product (or variant) in the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// Service defines customer-facing cart operations.
type Service interface {
	List(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error)
	AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type service struct {
	repo     Repository
	products products.Repository
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, productsRepo products.Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository is required")
	}
	if productsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "products repository is required")
	}
	return &service{repo: repo, products: productsRepo}, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error) {
	items, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing cart")
	}
	return items, nil
}

// AddItem merges with an existing line for the same product/variant instead
// of creating a duplicate row. Stock is only soft-checked here; checkout
// holds the authoritative check.
func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	available := product.StockQuantity
	if product.HasVariants && input.VariantID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product requires a variant selection")
	}
	if input.VariantID != nil {
		variant := findVariant(product, *input.VariantID)
		if variant == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found for product")
		}
		if !variant.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant is not available")
		}
		available = variant.StockQuantity
	}

	existing, err := s.repo.FindLine(ctx, customerID, input.ProductID, input.VariantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up cart line")
	}

	requested := input.Quantity
	if existing != nil {
		requested += existing.Quantity
	}
	if requested > available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"requested": requested,
				"available": available,
			})
	}

	if existing != nil {
		if err := s.repo.UpdateQuantity(ctx, existing.ID, requested); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cart line")
		}
		return s.repo.FindByIDAndCustomer(ctx, existing.ID, customerID)
	}

	item := &models.CartItem{
		CustomerID: customerID,
		ProductID:  input.ProductID,
		VariantID:  input.VariantID,
		Quantity:   input.Quantity,
	}
	if _, err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating cart line")
	}
	return s.repo.FindByIDAndCustomer(ctx, item.ID, customerID)
}

func (s *service) UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	item, err := s.repo.FindByIDAndCustomer(ctx, itemID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart line")
	}

	available := 0
	if item.Variant != nil {
		available = item.Variant.StockQuantity
	} else if item.Product != nil {
		available = item.Product.StockQuantity
	}
	if quantity > available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"requested": quantity,
				"available": available,
			})
	}

	if err := s.repo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cart line")
	}
	return s.repo.FindByIDAndCustomer(ctx, item.ID, customerID)
}

func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) error {
	item, err := s.repo.FindByIDAndCustomer(ctx, itemID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart line")
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting cart line")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if err := s.repo.DeleteAllByCustomer(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}

func findVariant(product *models.Product, variantID uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}
