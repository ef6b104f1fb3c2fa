// internal/domain/models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// AllOrderStatuses lists the fulfilment states.
func AllOrderStatuses() []string {
	return []string{
		string(OrderPending),
		string(OrderProcessing),
		string(OrderShipped),
		string(OrderDelivered),
		string(OrderCancelled),
	}
}

// Payment methods.
const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentBkash          = "bkash"
)

// Payment statuses.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
	PaymentFailed = "failed"
)

// Order is a purchase. Items carry a name/price snapshot taken from the
// product at order time.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"total_amount" json:"totalAmount"`
	Status          OrderStatus        `bson:"status" json:"status"`
	PaymentMethod   string             `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus   string             `bson:"payment_status" json:"paymentStatus"`
	ShippingAddress string             `bson:"shipping_address" json:"shippingAddress"`
	Phone           string             `bson:"phone" json:"phone"`
	PaymentID       string             `bson:"payment_id,omitempty" json:"paymentId,omitempty"`
	TransactionID   string             `bson:"transaction_id,omitempty" json:"transactionId,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Total sums price*quantity over the items.
func Total(items []OrderItem) float64 {
	var t float64
	for _, it := range items {
		t += it.Price * float64(it.Quantity)
	}
	return t
}
