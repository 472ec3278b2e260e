package catalog

import "time"

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         float64         `json:"price"`
	OriginalPrice *float64        `json:"originalPrice,omitempty"`
	Image         string          `json:"image"`
	Images        []string        `json:"images"`
	CategoryID    int64           `json:"categoryId"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description"`
	Features      []string        `json:"features"`
	Rating        float64         `json:"rating"`
	Reviews       int             `json:"reviews"`
	InStock       bool            `json:"inStock"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	ReviewsList   []ProductReview `json:"reviewsList,omitempty"`
}

// ProductReview is an approved review embedded in a product detail response.
type ProductReview struct {
	ID        int64     `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
