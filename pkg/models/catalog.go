package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Category struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Title    string     `gorm:"type:varchar(150);not null" json:"title"`
	Active   bool       `gorm:"default:true" json:"active"`
	Image    string     `gorm:"type:varchar(255)" json:"image"`
	ParentID *uint      `gorm:"index" json:"parent_id,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}

type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CategoryID      uint            `gorm:"not null;index" json:"category_id"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity        int             `gorm:"not null;check:quantity >= 0" json:"quantity"`
	Date            time.Time       `gorm:"autoCreateTime" json:"date"`
	Title           string          `gorm:"type:varchar(150);not null" json:"title"`
	FullDescription string          `gorm:"type:text" json:"full_description"`
	FreeDelivery    bool            `gorm:"default:true" json:"free_delivery"`
	Available       bool            `gorm:"default:true" json:"available"`
	Discount        int             `gorm:"default:0;check:discount >= 0 AND discount <= 100" json:"discount"`

	Images  []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	Tags    []Tag          `gorm:"many2many:product_tags" json:"tags,omitempty"`
	Reviews []Review       `gorm:"foreignKey:ProductID" json:"reviews,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// ShortDescription is the listing-card text, the first 50 characters
// of the full description.
func (p *Product) ShortDescription() string {
	runes := []rune(p.FullDescription)
	if len(runes) <= 50 {
		return p.FullDescription
	}
	return string(runes[:50])
}

// SalePrice returns the discounted price rounded to 2 decimals, or nil
// when the product carries no discount.
func (p *Product) SalePrice() *decimal.Decimal {
	if p.Discount <= 0 {
		return nil
	}
	discount := p.Price.Mul(decimal.NewFromInt(int64(p.Discount))).Div(decimal.NewFromInt(100))
	sale := p.Price.Sub(discount).Round(2)
	return &sale
}

// AverageRating is the mean of the loaded reviews' rates, nil when
// there are none.
func (p *Product) AverageRating() *float64 {
	if len(p.Reviews) == 0 {
		return nil
	}
	var sum int
	for _, r := range p.Reviews {
		sum += r.Rate
	}
	avg := float64(sum) / float64(len(p.Reviews))
	return &avg
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID *uint  `gorm:"index" json:"product_id,omitempty"`
	Image     string `gorm:"type:varchar(255)" json:"image"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

func (Tag) TableName() string {
	return "tags"
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID *uint     `gorm:"index" json:"product_id,omitempty"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Rate      int       `gorm:"default:0;check:rate >= 0" json:"rate"`
	Text      string    `gorm:"type:text" json:"text"`
	Date      time.Time `gorm:"autoCreateTime" json:"date"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}
