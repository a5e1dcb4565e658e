package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/config"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	to, subject, body string
}

func newCapturingEmailService(configured bool) (*EmailService, *[]sentEmail) {
	env := &config.Environment{SMTP_HOST: "smtp.example.com", SMTP_PORT: 587, SMTP_FROM: "noreply@example.com", APP_URL: "https://app.example.com/"}
	if configured {
		env.SMTP_USERNAME = "mailer"
		env.SMTP_PASSWORD = "secret"
	}
	svc := NewEmailService(env, discardLogger())
	sent := &[]sentEmail{}
	svc.send = func(to, subject, body string) error {
		*sent = append(*sent, sentEmail{to, subject, body})
		return nil
	}
	return svc, sent
}

func TestPurchaseConfirmationEmail(t *testing.T) {
	svc, sent := newCapturingEmailService(true)
	user := &model.User{Email: "learner@example.com", Name: "Asha <admin>"}
	txn := &model.Transaction{PaymentID: "pay_1", OrderID: "order_1", Amount: 499, Currency: "INR", PurchaseType: model.PurchaseTypeCourse, ItemName: "Go for Backend Engineers"}

	require.NoError(t, svc.SendPurchaseConfirmation(context.Background(), user, txn))
	require.Len(t, *sent, 1)

	msg := (*sent)[0]
	assert.Equal(t, "learner@example.com", msg.to)
	assert.Contains(t, msg.subject, "Payment successful")
	assert.Contains(t, msg.body, "499.00 INR")
	assert.Contains(t, msg.body, "Go for Backend Engineers")
	assert.Contains(t, msg.body, "https://app.example.com/my-courses")
	assert.Contains(t, msg.body, "Asha &lt;admin&gt;", "user supplied names are escaped")
}

func TestRefundEmailsListCartItems(t *testing.T) {
	svc, sent := newCapturingEmailService(true)
	user := &model.User{Email: "learner@example.com"}
	txn := &model.Transaction{
		PaymentID:    "pay_2",
		PurchaseType: model.PurchaseTypeCart,
		RefundID:     "rfnd_1",
		CartItems:    []model.CartItem{{ID: 10, Name: "SQL Basics", Price: 5}, {ID: 11, Name: "Docker Basics", Price: 7}},
	}

	require.NoError(t, svc.SendRefundProcessing(context.Background(), user, txn))
	require.NoError(t, svc.SendRefundCompleted(context.Background(), user, txn))
	require.Len(t, *sent, 2)

	assert.Contains(t, (*sent)[0].body, "SQL Basics, Docker Basics")
	assert.Contains(t, (*sent)[0].body, "rfnd_1")
	assert.Contains(t, (*sent)[0].body, "Hello Learner")
	assert.Contains(t, (*sent)[1].subject, "refund is complete")
}

func TestEmailNotConfigured(t *testing.T) {
	svc, sent := newCapturingEmailService(false)

	err := svc.SendPasswordResetEmail(context.Background(), "learner@example.com", "tok", "Asha")
	assert.ErrorIs(t, err, ErrSMTPNotConfigured)
	assert.Empty(t, *sent)
}

func TestEmailSendFailure(t *testing.T) {
	svc, _ := newCapturingEmailService(true)
	svc.send = func(string, string, string) error { return errors.New("connection refused") }

	err := svc.SendPasswordResetEmail(context.Background(), "learner@example.com", "tok", "")
	assert.ErrorContains(t, err, "connection refused")
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "learner@example.com", "Hi", "<p>body</p>"))

	head, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)
	assert.True(t, strings.HasPrefix(head, "From: SkillNestX <noreply@example.com>\r\n"))
	assert.Contains(t, head, "Content-Type: text/html; charset=UTF-8")
	assert.Equal(t, "<p>body</p>", body)
}
