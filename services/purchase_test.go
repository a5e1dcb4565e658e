package services

import (
	"testing"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseRequestValidate(t *testing.T) {
	tests := []struct {
		name     string
		req      PurchaseRequest
		wantCode string
	}{
		{
			name:     "missing fields",
			req:      PurchaseRequest{Currency: "INR"},
			wantCode: CodeInvalidInput,
		},
		{
			name:     "fractional amount",
			req:      PurchaseRequest{Amount: 499.5, Currency: "INR", PurchaseType: "course", CourseID: uintPtr(1)},
			wantCode: CodeInvalidAmount,
		},
		{
			name:     "negative amount",
			req:      PurchaseRequest{Amount: -100, Currency: "INR", PurchaseType: "course", CourseID: uintPtr(1)},
			wantCode: CodeInvalidAmount,
		},
		{
			name:     "unsupported currency",
			req:      PurchaseRequest{Amount: 1000, Currency: "EUR", PurchaseType: "course", CourseID: uintPtr(1)},
			wantCode: CodeInvalidCurrency,
		},
		{
			name:     "INR below minimum",
			req:      PurchaseRequest{Amount: 99, Currency: "INR", PurchaseType: "course", CourseID: uintPtr(1)},
			wantCode: CodeInvalidAmount,
		},
		{
			name:     "unknown purchase type",
			req:      PurchaseRequest{Amount: 1000, Currency: "INR", PurchaseType: "bundle", CourseID: uintPtr(1)},
			wantCode: CodeInvalidPurchaseType,
		},
		{
			name:     "course without id",
			req:      PurchaseRequest{Amount: 1000, Currency: "INR", PurchaseType: "course", SubscriptionID: uintPtr(1)},
			wantCode: CodeMissingCourseID,
		},
		{
			name:     "subscription without id",
			req:      PurchaseRequest{Amount: 1000, Currency: "INR", PurchaseType: "subscription"},
			wantCode: CodeMissingSubscriptionID,
		},
		{
			name:     "two references",
			req:      PurchaseRequest{Amount: 1000, Currency: "INR", PurchaseType: "course", CourseID: uintPtr(1), SubscriptionID: uintPtr(2)},
			wantCode: CodeInvalidInput,
		},
		{
			name:     "empty cart",
			req:      PurchaseRequest{Amount: 1000, Currency: "INR", PurchaseType: "cart"},
			wantCode: CodeInvalidCartItems,
		},
		{
			name:     "cart item without id",
			req:      PurchaseRequest{Amount: 500, Currency: "INR", PurchaseType: "cart", CartItems: []CartItemInput{{Price: 500}}},
			wantCode: CodeInvalidCartItems,
		},
		{
			name:     "cart item with fractional price",
			req:      PurchaseRequest{Amount: 500, Currency: "INR", PurchaseType: "cart", CartItems: []CartItemInput{{ID: 1, Price: 499.9}}},
			wantCode: CodeInvalidCartItems,
		},
		{
			name: "cart total differs from amount",
			req: PurchaseRequest{Amount: 1300, Currency: "INR", PurchaseType: "cart", CartItems: []CartItemInput{
				{ID: 10, Name: "SQL Basics", Price: 500},
				{ID: 11, Name: "Docker Basics", Price: 700},
			}},
			wantCode: CodeAmountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ErrorCodeOf(err))
		})
	}
}

func TestPurchaseRequestValidateCart(t *testing.T) {
	req := PurchaseRequest{Amount: 1200, Currency: "inr", PurchaseType: "cart", CartItems: []CartItemInput{
		{ID: 10, Name: "SQL Basics", Price: 500},
		{ID: 11, Name: "Docker Basics", Price: 700},
	}}

	valid, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, int64(1200), valid.Amount)
	assert.Equal(t, "INR", valid.Currency)
	assert.Equal(t, model.PurchaseTypeCart, valid.Purchase.Type)
	assert.Equal(t, []uint{10, 11}, valid.Purchase.CourseIDs())
}

func TestPurchaseNotesRoundTrip(t *testing.T) {
	cart := CartPurchase([]CartLine{{CourseID: 11, Price: 700}, {CourseID: 10, Price: 500}})
	notes := cart.Notes(42)

	assert.Equal(t, "42", notes["user_id"])
	assert.Equal(t, "cart", notes["purchase_type"])
	assert.Equal(t, "10,11", notes["cart_items"])
	assert.True(t, cart.MatchesNotes(notes, 42))
	assert.False(t, cart.MatchesNotes(notes, 43))
	assert.False(t, CoursePurchase(10).MatchesNotes(notes, 42))
}

func TestPurchaseFromTransaction(t *testing.T) {
	courseID := uint(7)
	p := PurchaseFromTransaction(&model.Transaction{PurchaseType: model.PurchaseTypeCourse, CourseID: &courseID})
	assert.Equal(t, CoursePurchase(7), p)

	p = PurchaseFromTransaction(&model.Transaction{
		PurchaseType: model.PurchaseTypeCart,
		CartItems:    []model.CartItem{{ID: 10, Name: "SQL Basics", Price: 5}},
	})
	require.Len(t, p.Items, 1)
	assert.Equal(t, int64(500), p.Items[0].Price)
}
