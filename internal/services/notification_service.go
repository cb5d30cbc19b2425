// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/config"
	"github.com/campuskart/campus-market/internal/models"
)

// NotificationService sends transactional email. Delivery is best
// effort: callers fire it from goroutines and a failed send never
// fails the request that triggered it.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

func (s *NotificationService) SendWelcomeEmail(user *models.User, college *models.College) {
	data := map[string]interface{}{
		"Name":        user.Name,
		"CollegeName": college.Name,
		"MarketURL":   s.config.Frontend.BaseURL,
	}
	s.deliver(user.Email, "welcome", data)
}

func (s *NotificationService) SendOrderConfirmationEmail(order *models.Order) {
	data := map[string]interface{}{
		"Name":      order.Buyer.Name,
		"ItemTitle": order.Item.Title,
		"Amount":    fmt.Sprintf("%.2f", order.Amount),
		"OrderURL":  fmt.Sprintf("%s/orders/%s", s.config.Frontend.BaseURL, order.ID),
	}
	s.deliver(order.Buyer.Email, "order_confirmation", data)
}

func (s *NotificationService) SendSaleEmail(order *models.Order) {
	data := map[string]interface{}{
		"Name":      order.Seller.Name,
		"ItemTitle": order.Item.Title,
		"BuyerName": order.Buyer.Name,
		"Amount":    fmt.Sprintf("%.2f", order.Amount),
	}
	s.deliver(order.Seller.Email, "item_sold", data)
}

func (s *NotificationService) SendBorrowRequestEmail(borrow *models.BorrowRequest) {
	data := map[string]interface{}{
		"Name":         borrow.Lender.Name,
		"BorrowerName": borrow.Borrower.Name,
		"ItemTitle":    borrow.Item.Title,
		"StartDate":    borrow.StartDate.Format("Jan 2, 2006"),
		"EndDate":      borrow.EndDate.Format("Jan 2, 2006"),
		"RequestsURL":  fmt.Sprintf("%s/borrow/pending", s.config.Frontend.BaseURL),
	}
	s.deliver(borrow.Lender.Email, "borrow_request", data)
}

func (s *NotificationService) SendBorrowApprovedEmail(borrow *models.BorrowRequest) {
	data := map[string]interface{}{
		"Name":        borrow.Borrower.Name,
		"ItemTitle":   borrow.Item.Title,
		"TotalAmount": fmt.Sprintf("%.2f", borrow.TotalAmount),
		"PaymentURL":  fmt.Sprintf("%s/borrow/%s/pay", s.config.Frontend.BaseURL, borrow.ID),
	}
	s.deliver(borrow.Borrower.Email, "borrow_approved", data)
}

func (s *NotificationService) SendBorrowRejectedEmail(borrow *models.BorrowRequest) {
	data := map[string]interface{}{
		"Name":      borrow.Borrower.Name,
		"ItemTitle": borrow.Item.Title,
		"Reason":    borrow.RejectionReason,
	}
	s.deliver(borrow.Borrower.Email, "borrow_rejected", data)
}

func (s *NotificationService) SendReturnConfirmedEmail(borrow *models.BorrowRequest) {
	data := map[string]interface{}{
		"Name":          borrow.Borrower.Name,
		"ItemTitle":     borrow.Item.Title,
		"DepositAmount": fmt.Sprintf("%.2f", borrow.DepositAmount),
	}
	s.deliver(borrow.Borrower.Email, "return_confirmed", data)
}

func (s *NotificationService) deliver(to, templateType string, data map[string]interface{}) {
	tmpl := s.getEmailTemplate(templateType)

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).WithField("template", templateType).Error("Failed to render email template")
		return
	}

	if err := s.sendEmail(to, tmpl.Subject, body); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"to":       to,
			"template": templateType,
		}).Error("Failed to send email")
	}
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email delivery skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Welcome to Campus Market",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Name}}!</h2>
	<p>Your account is ready. You can now buy, sell, and borrow items with other students at {{.CollegeName}}.</p>
	<a href="{{.MarketURL}}">Browse the marketplace</a>
	<p>Happy trading,<br>Campus Market Team</p>
</body>
</html>`,
		},
		"order_confirmation": {
			Subject: "Order Confirmed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thanks for your purchase, {{.Name}}!</h2>
	<p>Your payment of ${{.Amount}} for "{{.ItemTitle}}" went through.</p>
	<p>Arrange pickup with the seller through the in-app chat.</p>
	<a href="{{.OrderURL}}">View order</a>
	<p>Campus Market Team</p>
</body>
</html>`,
		},
		"item_sold": {
			Subject: "Your Item Sold",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Good news, {{.Name}}!</h2>
	<p>{{.BuyerName}} bought "{{.ItemTitle}}" for ${{.Amount}}.</p>
	<p>Arrange handover through the in-app chat, then confirm completion once the item changes hands.</p>
	<p>Campus Market Team</p>
</body>
</html>`,
		},
		"borrow_request": {
			Subject: "New Borrow Request",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>{{.BorrowerName}} wants to borrow "{{.ItemTitle}}" from {{.StartDate}} to {{.EndDate}}.</p>
	<a href="{{.RequestsURL}}">Review the request</a>
	<p>Campus Market Team</p>
</body>
</html>`,
		},
		"borrow_approved": {
			Subject: "Borrow Request Approved",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>Your request to borrow "{{.ItemTitle}}" was approved.</p>
	<p>Complete the payment of ${{.TotalAmount}} (rental plus refundable deposit) to start the loan.</p>
	<a href="{{.PaymentURL}}">Pay now</a>
	<p>Campus Market Team</p>
</body>
</html>`,
		},
		"borrow_rejected": {
			Subject: "Borrow Request Declined",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>Your request to borrow "{{.ItemTitle}}" was declined.</p>
	{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
	<p>Campus Market Team</p>
</body>
</html>`,
		},
		"return_confirmed": {
			Subject: "Return Confirmed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>The owner confirmed the return of "{{.ItemTitle}}".</p>
	<p>Your deposit of ${{.DepositAmount}} is on its way back to you.</p>
	<p>Campus Market Team</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
