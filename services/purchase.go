package services

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services/razorpay"
)

// Supported currencies
const (
	CurrencyINR = "INR"
	CurrencyUSD = "USD"
)

// minINRAmount is the gateway minimum for INR orders, in paise
const minINRAmount = 100

// Order note keys
const (
	noteUserID         = "user_id"
	notePurchaseType   = "purchase_type"
	noteCourseID       = "course_id"
	noteSubscriptionID = "subscription_id"
	noteCartItems      = "cart_items"
)

// CartItemInput is one cart line as submitted by the client. Price is in minor units.
type CartItemInput struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// PurchaseRequest is the purchase payload shared by create-order and verify-payment.
// Amount is in minor units.
type PurchaseRequest struct {
	Amount         float64         `json:"amount"`
	Currency       string          `json:"currency"`
	PurchaseType   string          `json:"purchaseType"`
	CourseID       *uint           `json:"courseId,omitempty"`
	SubscriptionID *uint           `json:"subscriptionId,omitempty"`
	CartItems      []CartItemInput `json:"cartItems,omitempty"`
}

// CartLine is a validated cart entry, priced in minor units
type CartLine struct {
	CourseID uint
	Name     string
	Price    int64
}

// PurchaseContext says what is being bought. Exactly one of CourseID,
// SubscriptionID or Items is set, selected by Type.
type PurchaseContext struct {
	Type           string
	CourseID       uint
	SubscriptionID uint
	Items          []CartLine
}

// CoursePurchase builds a course purchase context
func CoursePurchase(courseID uint) PurchaseContext {
	return PurchaseContext{Type: model.PurchaseTypeCourse, CourseID: courseID}
}

// SubscriptionPurchase builds a subscription purchase context
func SubscriptionPurchase(planID uint) PurchaseContext {
	return PurchaseContext{Type: model.PurchaseTypeSubscription, SubscriptionID: planID}
}

// CartPurchase builds a cart purchase context
func CartPurchase(items []CartLine) PurchaseContext {
	return PurchaseContext{Type: model.PurchaseTypeCart, Items: items}
}

// ValidatedPurchase is a request that passed every input rule
type ValidatedPurchase struct {
	Amount   int64
	Currency string
	Purchase PurchaseContext
}

// Validate applies the order input rules and returns the normalized purchase.
func (r PurchaseRequest) Validate() (*ValidatedPurchase, error) {
	if r.Amount == 0 || r.Currency == "" || r.PurchaseType == "" {
		return nil, badRequest(CodeInvalidInput, "amount, currency and purchaseType are required")
	}

	amount, ok := positiveInt(r.Amount)
	if !ok {
		return nil, badRequest(CodeInvalidAmount, "Amount must be a positive integer in minor currency units")
	}

	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency != CurrencyINR && currency != CurrencyUSD {
		return nil, badRequest(CodeInvalidCurrency, "Currency must be INR or USD")
	}
	if currency == CurrencyINR && amount < minINRAmount {
		return nil, badRequest(CodeInvalidAmount, "Amount must be at least 100 paise for INR")
	}

	refs := 0
	if r.CourseID != nil {
		refs++
	}
	if r.SubscriptionID != nil {
		refs++
	}
	if len(r.CartItems) > 0 {
		refs++
	}

	var purchase PurchaseContext
	switch r.PurchaseType {
	case model.PurchaseTypeCourse:
		if r.CourseID == nil || *r.CourseID == 0 {
			return nil, badRequest(CodeMissingCourseID, "courseId is required for course purchases")
		}
		purchase = CoursePurchase(*r.CourseID)
	case model.PurchaseTypeSubscription:
		if r.SubscriptionID == nil || *r.SubscriptionID == 0 {
			return nil, badRequest(CodeMissingSubscriptionID, "subscriptionId is required for subscription purchases")
		}
		purchase = SubscriptionPurchase(*r.SubscriptionID)
	case model.PurchaseTypeCart:
		items, err := validateCartItems(r.CartItems)
		if err != nil {
			return nil, err
		}
		var total int64
		for _, it := range items {
			total += it.Price
		}
		if total != amount {
			return nil, badRequest(CodeAmountMismatch, "Cart total does not match amount")
		}
		purchase = CartPurchase(items)
	default:
		return nil, badRequest(CodeInvalidPurchaseType, "purchaseType must be course, subscription or cart")
	}

	if refs != 1 {
		return nil, badRequest(CodeInvalidInput, "Exactly one of courseId, subscriptionId or cartItems must be provided")
	}

	return &ValidatedPurchase{Amount: amount, Currency: currency, Purchase: purchase}, nil
}

func validateCartItems(in []CartItemInput) ([]CartLine, error) {
	if len(in) == 0 {
		return nil, badRequest(CodeInvalidCartItems, "cartItems must not be empty")
	}
	seen := make(map[uint]struct{}, len(in))
	items := make([]CartLine, 0, len(in))
	for _, it := range in {
		if it.ID == 0 {
			return nil, badRequest(CodeInvalidCartItems, "Every cart item needs a valid id")
		}
		if _, dup := seen[it.ID]; dup {
			return nil, badRequest(CodeInvalidCartItems, "Cart contains the same course twice")
		}
		seen[it.ID] = struct{}{}
		price, ok := positiveInt(it.Price)
		if !ok {
			return nil, badRequest(CodeInvalidCartItems, "Every cart item needs a positive integer price")
		}
		items = append(items, CartLine{CourseID: it.ID, Name: strings.TrimSpace(it.Name), Price: price})
	}
	return items, nil
}

func positiveInt(v float64) (int64, bool) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v > math.MaxInt64/2 {
		return 0, false
	}
	return int64(v), true
}

// CourseIDs returns every course this purchase touches
func (p PurchaseContext) CourseIDs() []uint {
	switch p.Type {
	case model.PurchaseTypeCourse:
		return []uint{p.CourseID}
	case model.PurchaseTypeCart:
		ids := make([]uint, 0, len(p.Items))
		for _, it := range p.Items {
			ids = append(ids, it.CourseID)
		}
		return ids
	}
	return nil
}

// Notes renders the purchase context as gateway order notes
func (p PurchaseContext) Notes(userID uint) razorpay.Notes {
	notes := razorpay.Notes{
		noteUserID:       strconv.FormatUint(uint64(userID), 10),
		notePurchaseType: p.Type,
	}
	switch p.Type {
	case model.PurchaseTypeCourse:
		notes[noteCourseID] = strconv.FormatUint(uint64(p.CourseID), 10)
	case model.PurchaseTypeSubscription:
		notes[noteSubscriptionID] = strconv.FormatUint(uint64(p.SubscriptionID), 10)
	case model.PurchaseTypeCart:
		notes[noteCartItems] = joinIDs(p.CourseIDs())
	}
	return notes
}

// MatchesNotes reports whether gateway order notes describe this purchase for userID
func (p PurchaseContext) MatchesNotes(notes razorpay.Notes, userID uint) bool {
	want := p.Notes(userID)
	for k, v := range want {
		if notes[k] != v {
			return false
		}
	}
	return true
}

func joinIDs(ids []uint) string {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

// PurchaseFromTransaction rebuilds the purchase context recorded on a transaction
func PurchaseFromTransaction(txn *model.Transaction) PurchaseContext {
	switch txn.PurchaseType {
	case model.PurchaseTypeCourse:
		if txn.CourseID != nil {
			return CoursePurchase(*txn.CourseID)
		}
	case model.PurchaseTypeSubscription:
		if txn.SubscriptionID != nil {
			return SubscriptionPurchase(*txn.SubscriptionID)
		}
	case model.PurchaseTypeCart:
		items := make([]CartLine, 0, len(txn.CartItems))
		for _, it := range txn.CartItems {
			items = append(items, CartLine{CourseID: it.ID, Name: it.Name, Price: int64(math.Round(it.Price * 100))})
		}
		return CartPurchase(items)
	}
	return PurchaseContext{Type: txn.PurchaseType}
}
