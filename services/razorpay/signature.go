package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// maxReceiptLength is the gateway's limit on the order receipt field
const maxReceiptLength = 40

// ErrWebhookSecretMissing is returned when webhook verification is requested
// without a configured secret
var ErrWebhookSecretMissing = errors.New("razorpay webhook secret is not configured")

// VerifyPaymentSignature checks the checkout signature HMAC_SHA256(secret, orderID|paymentID)
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if c.keySecret == "" || signature == "" {
		return false
	}
	return verifyHMAC(c.keySecret, []byte(orderID+"|"+paymentID), signature)
}

// HasWebhookSecret reports whether webhook payloads can be authenticated
func (c *Client) HasWebhookSecret() bool {
	return c.webhookSecret != ""
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the raw body
func (c *Client) VerifyWebhookSignature(body []byte, signature string) (bool, error) {
	if c.webhookSecret == "" {
		return false, ErrWebhookSecretMissing
	}
	if signature == "" {
		return false, nil
	}
	return verifyHMAC(c.webhookSecret, body, signature), nil
}

// Sign computes the hex HMAC-SHA256 of payload with secret
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Receipt derives the order receipt from a trace id
func Receipt(traceID string) string {
	receipt := "trace-" + traceID
	if len(receipt) > maxReceiptLength {
		receipt = receipt[:maxReceiptLength]
	}
	return receipt
}
