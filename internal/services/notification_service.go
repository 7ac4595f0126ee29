// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/urbanthreads/storefront-backend/internal/config"
	"github.com/urbanthreads/storefront-backend/internal/models"
)

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

func (s *NotificationService) SendWelcomeEmail(user *models.User) error {
	tmpl := s.getEmailTemplate("welcome")

	data := map[string]interface{}{
		"Username": user.Username,
		"ShopURL":  s.config.Frontend.BaseURL,
		"ShopName": s.config.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, tmpl.Subject, body)
}

// SendOrderConfirmation emails the order owner a receipt after payment is
// recorded. The order passed in may be a bare row, so the user and items are
// loaded here.
func (s *NotificationService) SendOrderConfirmation(order *models.Order) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", order.UserID).Error; err != nil {
		return fmt.Errorf("failed to load order user: %w", err)
	}

	if len(order.Items) == 0 {
		if err := s.db.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}
	}

	type lineView struct {
		Name     string
		Size     string
		Quantity int
		Subtotal string
	}
	lines := make([]lineView, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, lineView{
			Name:     item.Name,
			Size:     item.Size,
			Quantity: item.Quantity,
			Subtotal: fmt.Sprintf("%.2f", item.UnitPrice*float64(item.Quantity)),
		})
	}

	tmpl := s.getEmailTemplate("order_confirmation")

	data := map[string]interface{}{
		"Username":      user.Username,
		"OrderID":       order.ID.String(),
		"Items":         lines,
		"ItemsPrice":    fmt.Sprintf("%.2f", order.ItemsPrice),
		"ShippingPrice": fmt.Sprintf("%.2f", order.ShippingPrice),
		"TaxPrice":      fmt.Sprintf("%.2f", order.TaxPrice),
		"TotalPrice":    fmt.Sprintf("%.2f", order.TotalPrice),
		"Currency":      s.config.Payment.DisplayCurrency,
		"OrderURL":      fmt.Sprintf("%s/orders/%s", s.config.Frontend.BaseURL, order.ID),
		"ShopName":      s.config.Email.FromName,
	}

	subject := fmt.Sprintf("Order Confirmation - %s", order.ID)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, subject, body)
}

func (s *NotificationService) SendOrderDelivered(order *models.Order) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", order.UserID).Error; err != nil {
		return fmt.Errorf("failed to load order user: %w", err)
	}

	tmpl := s.getEmailTemplate("order_delivered")

	data := map[string]interface{}{
		"Username": user.Username,
		"OrderID":  order.ID.String(),
		"OrderURL": fmt.Sprintf("%s/orders/%s", s.config.Frontend.BaseURL, order.ID),
		"ShopName": s.config.Email.FromName,
	}

	subject := fmt.Sprintf("Your Order Has Been Delivered - %s", order.ID)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("Email delivery skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s <%s>\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		to, s.config.Email.FromName, s.config.Email.FromEmail, subject, body))

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
	// In a real implementation, these would be loaded from files or database
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Welcome to Urban Threads",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Username}}!</h2>
	<p>Thanks for creating an account. Browse the latest drops here:</p>
	<a href="{{.ShopURL}}">Shop Now</a>
	<p>Best regards,<br>{{.ShopName}} Team</p>
</body>
</html>`,
		},
		"order_confirmation": {
			Subject: "Order Confirmation",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thanks for your order, {{.Username}}!</h2>
	<p>We've received your payment for order <strong>{{.OrderID}}</strong>.</p>
	<table>
		{{range .Items}}
		<tr><td>{{.Name}} ({{.Size}}) x {{.Quantity}}</td><td>{{.Subtotal}}</td></tr>
		{{end}}
	</table>
	<p>Items: {{.ItemsPrice}} {{.Currency}}<br>
	Shipping: {{.ShippingPrice}} {{.Currency}}<br>
	Tax: {{.TaxPrice}} {{.Currency}}<br>
	<strong>Total: {{.TotalPrice}} {{.Currency}}</strong></p>
	<a href="{{.OrderURL}}">View Order</a>
	<p>Best regards,<br>{{.ShopName}} Team</p>
</body>
</html>`,
		},
		"order_delivered": {
			Subject: "Order Delivered",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Good news, {{.Username}}!</h2>
	<p>Your order <strong>{{.OrderID}}</strong> has been delivered.</p>
	<a href="{{.OrderURL}}">View Order</a>
	<p>Best regards,<br>{{.ShopName}} Team</p>
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
