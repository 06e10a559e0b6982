package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/session"
)

type lineItemResponse struct {
	ProductID   int64             `json:"product_id"`
	VariationID *int64            `json:"variation_id,omitempty"`
	Name        string            `json:"name"`
	Quantity    int               `json:"quantity"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Total       string            `json:"total"`
}

type orderResponse struct {
	ID            int64              `json:"id"`
	Status        order.Status       `json:"status"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	CustomerID    *int64             `json:"customer_id,omitempty"`
	Total         string             `json:"total"`
	Items         []lineItemResponse `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
}

type checkoutResponse struct {
	Order        orderResponse `json:"order"`
	Redirect     string        `json:"redirect"`
	Instructions string        `json:"instructions,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		CustomerID:    o.CustomerID,
		Total:         o.Total.StringFixed(2),
		Items:         make([]lineItemResponse, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
	}

	for _, li := range o.Items {
		resp.Items = append(resp.Items, lineItemResponse{
			ProductID:   li.ProductID,
			VariationID: li.VariationID,
			Name:        li.Name,
			Quantity:    li.Quantity,
			Attributes:  li.Attributes,
			Total:       li.Total.StringFixed(2),
		})
	}

	return resp
}

type cartItemResponse struct {
	ProductID   int64             `json:"product_id"`
	VariationID *int64            `json:"variation_id,omitempty"`
	Name        string            `json:"name"`
	Quantity    int               `json:"quantity"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	UnitPrice   string            `json:"unit_price"`
	LineTotal   string            `json:"line_total"`
}

type feeResponse struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type cartResponse struct {
	SessionID   uuid.UUID          `json:"session_id"`
	EditOrderID *int64             `json:"edit_order_id,omitempty"`
	Items       []cartItemResponse `json:"items"`
	Fees        []feeResponse      `json:"fees"`
	Subtotal    string             `json:"subtotal"`
	Total       string             `json:"total"`
}

func toCartResponse(sess *session.Session) cartResponse {
	resp := cartResponse{
		SessionID:   sess.ID,
		EditOrderID: sess.EditOrderID,
		Items:       make([]cartItemResponse, 0, len(sess.Cart.Items)),
		Fees:        make([]feeResponse, 0, len(sess.Cart.Fees)),
		Subtotal:    sess.Cart.Subtotal().StringFixed(2),
		Total:       sess.Cart.Total().StringFixed(2),
	}

	for _, item := range sess.Cart.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			Attributes:  item.Attributes,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}

	for _, f := range sess.Cart.Fees {
		resp.Fees = append(resp.Fees, feeResponse{Key: f.Key, Name: f.Name, Amount: f.Amount.StringFixed(2)})
	}

	return resp
}
