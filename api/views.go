package api

import (
	"time"

	"github.com/example/marketplace/pkg/models"
	"github.com/shopspring/decimal"
)

type categoryItem struct {
	ID    uint            `json:"id"`
	Title string          `json:"title"`
	Image models.ImageRef `json:"image"`
}

type categoryResponse struct {
	categoryItem
	Subcategories []categoryItem `json:"subcategories"`
}

func categoryView(category models.Category) categoryResponse {
	response := categoryResponse{
		categoryItem:  categoryItem{ID: category.ID, Title: category.Title, Image: models.ImageRef{Src: category.Image, Alt: category.Title}},
		Subcategories: make([]categoryItem, 0, len(category.Children)),
	}
	for _, child := range category.Children {
		response.Subcategories = append(response.Subcategories, categoryItem{
			ID:    child.ID,
			Title: child.Title,
			Image: models.ImageRef{Src: child.Image, Alt: child.Title},
		})
	}
	return response
}

func imageRefs(p *models.Product) []models.ImageRef {
	images := make([]models.ImageRef, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, models.ImageRef{Src: img.Image, Alt: p.Title})
	}
	return images
}

func tagRefs(p *models.Product) []models.TagRef {
	tags := make([]models.TagRef, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tags = append(tags, models.TagRef{ID: tag.ID, Name: tag.Name})
	}
	return tags
}

func productView(p *models.Product) models.ProductView {
	return models.ProductView{
		ID:           p.ID,
		Category:     p.CategoryID,
		Price:        p.Price,
		SalePrice:    p.SalePrice(),
		Count:        p.Quantity,
		Date:         p.Date,
		Title:        p.Title,
		Description:  p.ShortDescription(),
		FreeDelivery: p.FreeDelivery,
		Images:       imageRefs(p),
		Tags:         tagRefs(p),
		Reviews:      len(p.Reviews),
		Rating:       p.AverageRating(),
	}
}

func productViews(products []models.Product) []models.ProductView {
	views := make([]models.ProductView, 0, len(products))
	for i := range products {
		views = append(views, productView(&products[i]))
	}
	return views
}

type reviewDetail struct {
	Author string    `json:"author"`
	Email  string    `json:"email"`
	Text   string    `json:"text"`
	Rate   int       `json:"rate"`
	Date   time.Time `json:"date"`
}

type specification struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type productDetailResponse struct {
	ID              uint              `json:"id"`
	Category        uint              `json:"category"`
	Price           decimal.Decimal   `json:"price"`
	SalePrice       *decimal.Decimal  `json:"salePrice,omitempty"`
	Count           int               `json:"count"`
	Date            time.Time         `json:"date"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	FullDescription string            `json:"fullDescription"`
	FreeDelivery    bool              `json:"freeDelivery"`
	Images          []models.ImageRef `json:"images"`
	Tags            []models.TagRef   `json:"tags"`
	Reviews         []reviewDetail    `json:"reviews"`
	Specifications  []specification   `json:"specifications"`
	Rating          *float64          `json:"rating"`
}

func productDetailView(p *models.Product) productDetailResponse {
	reviews := make([]reviewDetail, 0, len(p.Reviews))
	for _, review := range p.Reviews {
		reviews = append(reviews, reviewDetail{
			Author: review.Author.Profile.FullName,
			Email:  review.Author.Profile.Email,
			Text:   review.Text,
			Rate:   review.Rate,
			Date:   review.Date,
		})
	}
	return productDetailResponse{
		ID:              p.ID,
		Category:        p.CategoryID,
		Price:           p.Price,
		SalePrice:       p.SalePrice(),
		Count:           p.Quantity,
		Date:            p.Date,
		Title:           p.Title,
		Description:     p.ShortDescription(),
		FullDescription: p.FullDescription,
		FreeDelivery:    p.FreeDelivery,
		Images:          imageRefs(p),
		Tags:            tagRefs(p),
		Reviews:         reviews,
		Specifications:  []specification{{Name: "Size", Value: "XL"}},
		Rating:          p.AverageRating(),
	}
}

type orderResponse struct {
	ID           uint                 `json:"id"`
	CreatedAt    time.Time            `json:"createdAt"`
	FullName     string               `json:"fullName"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone"`
	DeliveryType string               `json:"deliveryType"`
	PaymentType  string               `json:"paymentType"`
	TotalCost    decimal.Decimal      `json:"totalCost"`
	Status       models.OrderStatus   `json:"status"`
	City         string               `json:"city"`
	Address      string               `json:"address"`
	Products     []models.ProductView `json:"products"`
}

func orderView(order *models.Order) (orderResponse, error) {
	products, err := order.ProductViews()
	if err != nil {
		return orderResponse{}, err
	}
	if products == nil {
		products = []models.ProductView{}
	}
	return orderResponse{
		ID:           order.ID,
		CreatedAt:    order.CreatedAt,
		FullName:     order.User.Profile.FullName,
		Email:        order.User.Profile.Email,
		Phone:        order.User.Profile.Phone,
		DeliveryType: order.DeliveryType,
		PaymentType:  order.PaymentType,
		TotalCost:    order.TotalCost,
		Status:       order.Status,
		City:         order.City,
		Address:      order.Address,
		Products:     products,
	}, nil
}

// pageResponse is the pagination envelope shared by catalog-style
// listings.
type pageResponse struct {
	Items       []models.ProductView `json:"items"`
	CurrentPage int                  `json:"currentPage"`
	LastPage    int                  `json:"lastPage"`
}

func newPage(items []models.ProductView, page, limit int, total int64) pageResponse {
	lastPage := int((total + int64(limit) - 1) / int64(limit))
	if lastPage < 1 {
		lastPage = 1
	}
	return pageResponse{Items: items, CurrentPage: page, LastPage: lastPage}
}
