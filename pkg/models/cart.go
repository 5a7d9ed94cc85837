package models

import "time"

// CartSession is a customer's open cart, tracked so the hourly sweep can
// detect abandonment. Sessions live in Redis with a bounded TTL.
type CartSession struct {
	CustomerID string     `json:"customer_id"`
	Items      []CartItem `json:"items"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem is one line of a cart session.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Total sums the cart line prices.
func (c *CartSession) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}

	return total
}
