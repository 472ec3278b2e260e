package reviews

import (
	"errors"
	"time"
)

type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`

	// joined context for admin/product views
	UserName    string `json:"userName,omitempty"`
	UserEmail   string `json:"userEmail,omitempty"`
	ProductName string `json:"productName,omitempty"`
}

var (
	ErrNotFound        = errors.New("review not found")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrAlreadyReviewed = errors.New("duplicate review")
)

const (
	ReasonNotPurchased    = "You must purchase this product before reviewing it."
	ReasonAlreadyReviewed = "You have already reviewed this product."
)

// IneligibleError is a business-rule refusal; Reason is safe to show the user.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string { return e.Reason }
