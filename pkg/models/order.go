package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusDelivery  OrderStatus = "delivery"
	OrderStatusDelivered OrderStatus = "delivered"
)

const (
	DeliveryFree    = "free"
	DeliveryExpress = "express"

	PaymentOnline  = "online"
	PaymentOffline = "offline"
)

type Order struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	DeliveryType string          `gorm:"type:varchar(10)" json:"delivery_type"`
	PaymentType  string          `gorm:"type:varchar(10)" json:"payment_type"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_cost"`
	Status       OrderStatus     `gorm:"type:varchar(10);default:'accepted'" json:"status"`
	City         string          `gorm:"type:varchar(100)" json:"city"`
	Address      string          `gorm:"type:varchar(150)" json:"address"`
	Products     string          `gorm:"type:text" json:"-"` // JSON snapshot, frozen at creation

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// ImageRef is the {src, alt} pair used everywhere an image is exposed.
type ImageRef struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type TagRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ProductView is the shared catalog representation of a product. It is
// both the API listing shape and the per-item record frozen into an
// order's products snapshot.
type ProductView struct {
	ID           uint             `json:"id"`
	Category     uint             `json:"category"`
	Price        decimal.Decimal  `json:"price"`
	SalePrice    *decimal.Decimal `json:"salePrice,omitempty"`
	Count        int              `json:"count"`
	Date         time.Time        `json:"date"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	FreeDelivery bool             `json:"freeDelivery"`
	Images       []ImageRef       `json:"images"`
	Tags         []TagRef         `json:"tags"`
	Reviews      int              `json:"reviews"`
	Rating       *float64         `json:"rating"`
}

func (o *Order) SetProducts(items []ProductView) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	o.Products = string(data)
	return nil
}

func (o *Order) ProductViews() ([]ProductView, error) {
	if o.Products == "" {
		return nil, nil
	}
	var items []ProductView
	if err := json.Unmarshal([]byte(o.Products), &items); err != nil {
		return nil, err
	}
	return items, nil
}
