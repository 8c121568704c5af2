package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type CatalogService struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

type ProductInput struct {
	Name        string
	Description string
	Code        string
	Price       float64
	Stock       int
	Category    string
	Status      *bool
	Thumbnails  []string
}

type ProductPage struct {
	Products   []*domain.Product
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

func (in *ProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	case in.Code == "":
		return fmt.Errorf("%w: code is required", domain.ErrValidation)
	case in.Price < 0:
		return fmt.Errorf("%w: price must be non-negative", domain.ErrValidation)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock must be non-negative", domain.ErrValidation)
	}
	return nil
}

func (in *ProductInput) apply(p *domain.Product) error {
	thumbnails := in.Thumbnails
	if thumbnails == nil {
		thumbnails = []string{}
	}
	raw, err := json.Marshal(thumbnails)
	if err != nil {
		return err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Code = in.Code
	p.Price = in.Price
	p.Stock = in.Stock
	p.Category = strings.TrimSpace(in.Category)
	p.Status = in.Status == nil || *in.Status
	p.Thumbnails = datatypes.JSON(raw)
	return nil
}

// List pages through the catalog. page is 1-based.
func (s *CatalogService) List(ctx context.Context, category string, sort domain.ProductSort, page, limit int) (*ProductPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	switch sort {
	case domain.ProductSortNone, domain.ProductSortPriceAsc, domain.ProductSortPriceDesc:
	default:
		return nil, fmt.Errorf("%w: sort must be asc or desc", domain.ErrValidation)
	}

	products, total, err := s.productRepo.List(ctx, domain.ProductFilter{
		Category: category,
		Sort:     sort,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := input.apply(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.apply(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}
