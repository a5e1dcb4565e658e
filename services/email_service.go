package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/config"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
)

// ErrSMTPNotConfigured is returned when SMTP credentials are missing
var ErrSMTPNotConfigured = errors.New("SMTP not configured")

const brandName = "SkillNestX"

// EmailService handles sending emails via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	appURL   string
	logger   *slog.Logger

	// send delivers one rendered message; swapped in tests
	send func(to, subject, htmlBody string) error
}

// NewEmailService creates a new email service instance
func NewEmailService(env *config.Environment, logger *slog.Logger) *EmailService {
	e := &EmailService{
		host:     env.SMTP_HOST,
		port:     env.SMTP_PORT,
		username: env.SMTP_USERNAME,
		password: env.SMTP_PASSWORD,
		from:     env.SMTP_FROM,
		appURL:   strings.TrimRight(env.APP_URL, "/"),
		logger:   logger,
	}
	e.send = e.sendSMTP
	return e
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

type emailContent struct {
	Brand     string
	Title     string
	Name      string
	Lines     []string
	Rows      [][2]string
	LinkLabel string
	LinkURL   string
	Footnote  string
}

var emailLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - {{.Brand}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5; }
        .container { background-color: #ffffff; border-radius: 8px; padding: 40px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1); }
        h2 { color: #1a4d8f; margin-top: 0; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        td { padding: 8px; border-bottom: 1px solid #eee; }
        td.label { color: #666; width: 40%; }
        .button { display: inline-block; background-color: #1a4d8f; color: #ffffff !important; padding: 14px 28px; text-decoration: none; border-radius: 6px; font-weight: 600; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h2>{{.Title}}</h2>
        <p>Hello {{.Name}},</p>
        {{range .Lines}}<p>{{.}}</p>
        {{end}}{{if .Rows}}<table>
            {{range .Rows}}<tr><td class="label">{{index . 0}}</td><td>{{index . 1}}</td></tr>
            {{end}}</table>{{end}}
        {{if .LinkURL}}<p style="text-align: center;"><a href="{{.LinkURL}}" class="button">{{.LinkLabel}}</a></p>{{end}}
        <div class="footer">
            <p><strong>{{.Brand}}</strong></p>
            {{if .Footnote}}<p>{{.Footnote}}</p>{{end}}
        </div>
    </div>
</body>
</html>`))

func renderEmail(content emailContent) (string, error) {
	if content.Name == "" {
		content.Name = "Learner"
	}
	content.Brand = brandName

	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, content); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

func transactionRows(txn *model.Transaction) [][2]string {
	rows := [][2]string{
		{"Item", purchaseLabel(txn)},
		{"Amount", fmt.Sprintf("%.2f %s", txn.Amount, txn.Currency)},
		{"Payment ID", txn.PaymentID},
		{"Order ID", txn.OrderID},
	}
	if txn.RefundID != "" {
		rows = append(rows, [2]string{"Refund ID", txn.RefundID})
	}
	return rows
}

func purchaseLabel(txn *model.Transaction) string {
	if txn.PurchaseType == model.PurchaseTypeCart && len(txn.CartItems) > 0 {
		names := make([]string, 0, len(txn.CartItems))
		for _, item := range txn.CartItems {
			names = append(names, item.Name)
		}
		return strings.Join(names, ", ")
	}
	if txn.ItemName != "" {
		return txn.ItemName
	}
	return txn.PurchaseType
}

// SendPurchaseConfirmation sends the receipt email after a verified payment
func (e *EmailService) SendPurchaseConfirmation(ctx context.Context, user *model.User, txn *model.Transaction) error {
	lines := []string{"Thank you for your purchase. Your payment was received and your access is now active."}
	if txn.PurchaseType == model.PurchaseTypeSubscription && txn.Duration > 0 {
		lines = append(lines, fmt.Sprintf("Your subscription is valid for %d days.", txn.Duration))
	}
	return e.deliver(ctx, user.Email, "Payment successful - "+brandName, emailContent{
		Title:     "Payment Confirmed",
		Name:      user.Name,
		Lines:     lines,
		Rows:      transactionRows(txn),
		LinkLabel: "Start Learning",
		LinkURL:   e.appURL + "/my-courses",
		Footnote:  "Keep this email for your records.",
	})
}

// SendRefundProcessing tells the user a refund was started and access was removed
func (e *EmailService) SendRefundProcessing(ctx context.Context, user *model.User, txn *model.Transaction) error {
	return e.deliver(ctx, user.Email, "Your refund is being processed - "+brandName, emailContent{
		Title: "Refund Initiated",
		Name:  user.Name,
		Lines: []string{
			"We have started a refund for the payment below. Access to the purchased content has been removed.",
			"Refunds usually reach your account within 5-7 business days.",
		},
		Rows: transactionRows(txn),
	})
}

// SendRefundCompleted tells the user the gateway settled the refund
func (e *EmailService) SendRefundCompleted(ctx context.Context, user *model.User, txn *model.Transaction) error {
	return e.deliver(ctx, user.Email, "Your refund is complete - "+brandName, emailContent{
		Title: "Refund Completed",
		Name:  user.Name,
		Lines: []string{"Your refund has been completed by the payment provider."},
		Rows:  transactionRows(txn),
	})
}

// SendPasswordResetEmail sends a password reset email to the user
func (e *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, resetToken, userName string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", e.appURL, resetToken)
	return e.deliver(ctx, toEmail, "Reset Your Password - "+brandName, emailContent{
		Title:     "Reset Your Password",
		Name:      userName,
		Lines:     []string{"We received a request to reset the password for your account. This link will expire in 1 hour."},
		LinkLabel: "Reset Password",
		LinkURL:   resetLink,
		Footnote:  "If you didn't request this password reset, you can safely ignore this email.",
	})
}

func (e *EmailService) deliver(ctx context.Context, to, subject string, content emailContent) error {
	if !e.IsConfigured() {
		e.logger.WarnContext(ctx, "smtp not configured, email not sent", "to", to, "subject", subject)
		return ErrSMTPNotConfigured
	}
	if to == "" {
		return errors.New("recipient email is empty")
	}

	body, err := renderEmail(content)
	if err != nil {
		return err
	}
	if err := e.send(to, subject, body); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "email sent", "to", to, "subject", subject)
	return nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var message strings.Builder
	// Fixed header order keeps messages reproducible
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", brandName, from)},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	for _, h := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)
	return []byte(message.String())
}

// sendSMTP sends an email using SMTP with STARTTLS
func (e *EmailService) sendSMTP(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(buildMessage(e.from, to, subject, htmlBody)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return conn.Quit()
}
