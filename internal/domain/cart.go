package domain

import "time"

// MaxCartItemQuantity bounds a single cart line.
const MaxCartItemQuantity = 999

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Lines converts the cart content into checkout lines.
func (c *Cart) Lines() []CheckoutLine {
	if c == nil {
		return nil
	}
	lines := make([]CheckoutLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, CheckoutLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
