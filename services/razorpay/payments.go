package razorpay

import (
	"context"
	"net/http"
	"net/url"
)

// Payment is a Razorpay payment entity
type Payment struct {
	ID             string `json:"id"`
	Entity         string `json:"entity"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"` // created, authorized, captured, refunded, failed
	OrderID        string `json:"order_id"`
	Method         string `json:"method"`
	AmountRefunded int64  `json:"amount_refunded"`
	RefundStatus   string `json:"refund_status"`
	Captured       bool   `json:"captured"`
	Email          string `json:"email"`
	Notes          Notes  `json:"notes"`
	CreatedAt      int64  `json:"created_at"`
}

// Refund is a Razorpay refund entity
type Refund struct {
	ID             string `json:"id"`
	Entity         string `json:"entity"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PaymentID      string `json:"payment_id"`
	Status         string `json:"status"` // pending, processed, failed
	SpeedProcessed string `json:"speed_processed,omitempty"`
	Notes          Notes  `json:"notes"`
	CreatedAt      int64  `json:"created_at"`
}

// RefundRequest is the body of POST /v1/payments/:id/refund
type RefundRequest struct {
	Amount  int64  `json:"amount,omitempty"` // minor units, omit for full refund
	Speed   string `json:"speed,omitempty"`
	Receipt string `json:"receipt,omitempty"`
	Notes   Notes  `json:"notes,omitempty"`
}

// GetPayment fetches a payment by id
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	endpoint := "/v1/payments/" + url.PathEscape(paymentID)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Refund issues a refund for a captured payment
func (c *Client) Refund(ctx context.Context, paymentID string, req RefundRequest) (*Refund, error) {
	var refund Refund
	endpoint := "/v1/payments/" + url.PathEscape(paymentID) + "/refund"
	if err := c.doRequest(ctx, http.MethodPost, endpoint, req, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// GetRefund fetches a refund of a payment
func (c *Client) GetRefund(ctx context.Context, paymentID, refundID string) (*Refund, error) {
	var refund Refund
	endpoint := "/v1/payments/" + url.PathEscape(paymentID) + "/refunds/" + url.PathEscape(refundID)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}
