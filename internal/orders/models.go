package orders

import "time"

type Order struct {
	ID       int64       `json:"id"`
	Customer string      `json:"customer"`
	Email    string      `json:"email"`
	Total    float64     `json:"total"`
	Status   Status      `json:"status"`
	UserID   *int64      `json:"userId,omitempty"`
	Date     time.Time   `json:"date"`
	Items    []OrderItem `json:"items"`
}

// OrderItem freezes the unit price at purchase time. Price is never re-read
// from the live product row.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"orderId"`
	ProductID   int64   `json:"productId"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	ProductName string  `json:"productName,omitempty"`
}

type ItemInput struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CreateInput struct {
	Customer string      `json:"customer"`
	Email    string      `json:"email"`
	Items    []ItemInput `json:"items"`
	Total    float64     `json:"total"`
	UserID   *int64      `json:"userId,omitempty"`
}
