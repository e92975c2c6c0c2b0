package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/marketplace/pkg/models"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Preload("User.Profile").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ByIDForUser returns an order only when it belongs to the given user;
// foreign orders are indistinguishable from missing ones.
func (r *OrderRepository) ByIDForUser(ctx context.Context, id, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Preload("User.Profile").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// OrderUpdate carries the mutable order fields. The products snapshot
// and total cost are frozen at creation and never touched here.
type OrderUpdate struct {
	DeliveryType string
	PaymentType  string
	Status       models.OrderStatus
	City         string
	Address      string
}

func (r *OrderRepository) Update(ctx context.Context, id, userID uint, update OrderUpdate) error {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&order).Updates(map[string]interface{}{
		"delivery_type": update.DeliveryType,
		"payment_type":  update.PaymentType,
		"status":        update.Status,
		"city":          update.City,
		"address":       update.Address,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}
