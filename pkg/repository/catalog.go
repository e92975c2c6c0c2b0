package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/marketplace/pkg/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

const (
	ratingExpr      = "(SELECT AVG(r.rate) FROM reviews r WHERE r.product_id = products.id)"
	reviewCountExpr = "(SELECT COUNT(*) FROM reviews r WHERE r.product_id = products.id)"
)

// sortColumns whitelists the catalog sort fields.
var sortColumns = map[string]string{
	"price":   "price",
	"date":    "date",
	"title":   "title",
	"rating":  ratingExpr,
	"reviews": reviewCountExpr,
}

// ProductFilter is the typed form of the catalog query parameters. Nil
// fields are no-ops; set fields combine with AND.
type ProductFilter struct {
	Name         *string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	FreeDelivery *bool
	Available    *bool
	CategoryID   *uint
	Sort         string
	Descending   bool
}

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Categories returns active top-level categories ordered by id, each
// with its active subcategories loaded.
func (r *CatalogRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("active = ? AND parent_id IS NULL", true).
		Order("id").
		Preload("Children", "active = ?", true).
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *CatalogRepository) CategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Preload("Children").First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// Products applies the filter and returns one page of products plus the
// total match count. Page and limit are expected to be normalized by
// the caller.
func (r *CatalogRepository) Products(ctx context.Context, filter ProductFilter, page, limit int) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.Name != nil {
		query = query.Where("title LIKE ?", "%"+*filter.Name+"%")
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.FreeDelivery != nil {
		query = query.Where("free_delivery = ?", *filter.FreeDelivery)
	}
	if filter.Available != nil {
		query = query.Where("available = ?", *filter.Available)
	}
	if filter.CategoryID != nil {
		ids, err := r.categoryScope(ctx, *filter.CategoryID)
		if err != nil {
			return nil, 0, err
		}
		query = query.Where("category_id IN ?", ids)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order := "id"
	if column, ok := sortColumns[filter.Sort]; ok {
		order = column
	}
	if filter.Descending {
		order += " DESC"
	}

	var products []models.Product
	err := query.
		Preload("Images").Preload("Tags").Preload("Reviews").
		Order(order).
		Offset((page - 1) * limit).Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// categoryScope resolves a category id filter: a subcategory narrows to
// itself, a top-level category widens to itself plus its children.
func (r *CatalogRepository) categoryScope(ctx context.Context, id uint) ([]uint, error) {
	category, err := r.CategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.ParentID != nil {
		return []uint{category.ID}, nil
	}
	ids := []uint{category.ID}
	for _, child := range category.Children {
		ids = append(ids, child.ID)
	}
	return ids, nil
}

// PopularProducts returns the 5 products with the highest average
// review rating.
func (r *CatalogRepository) PopularProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Images").Preload("Tags").Preload("Reviews").
		Order(ratingExpr + " DESC").
		Limit(5).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list popular products: %w", err)
	}
	return products, nil
}

// LimitedProducts returns the 5 products with the lowest stock.
func (r *CatalogRepository) LimitedProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Images").Preload("Tags").Preload("Reviews").
		Order("quantity").
		Limit(5).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list limited products: %w", err)
	}
	return products, nil
}

// SaleProducts returns one page of discounted products plus the total
// discounted count.
func (r *CatalogRepository) SaleProducts(ctx context.Context, page, limit int) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("discount > 0")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sale products: %w", err)
	}

	var products []models.Product
	err := query.
		Preload("Images").Preload("Tags").Preload("Reviews").
		Order("id").
		Offset((page - 1) * limit).Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sale products: %w", err)
	}
	return products, total, nil
}

// BannerProducts returns the 5 most recently created products.
func (r *CatalogRepository) BannerProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Images").Preload("Tags").Preload("Reviews").
		Order("date DESC").
		Limit(5).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list banner products: %w", err)
	}
	return products, nil
}

// Tags returns the first 5 tags in storage order.
func (r *CatalogRepository) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("id").Limit(5).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// ProductByID loads one product with images, tags and reviews, the
// reviews carrying their authors' profiles for the detail view.
func (r *CatalogRepository) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images").Preload("Tags").
		Preload("Reviews").Preload("Reviews.Author.Profile").
		First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// CreateReview stores a review against an existing product.
func (r *CatalogRepository) CreateReview(ctx context.Context, productID, authorID uint, rate int, text string) (*models.Review, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	review := &models.Review{
		ProductID: &productID,
		AuthorID:  authorID,
		Rate:      rate,
		Text:      text,
	}
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}
