package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"salonpro-crm/logger"
	"salonpro-crm/models"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type Email struct {
	ToName    string
	ToAddress string
	Subject   string
	Text      string
	HTML      string
}

type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

type sendgridMailer struct {
	key  string
	from *sgmail.Email
	log  *logger.Logger
}

func NewSendGridMailer(key, fromName, fromAddress string, log *logger.Logger) (Mailer, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(fromAddress) == "" {
		return nil, fmt.Errorf("missing MAIL_FROM")
	}
	return &sendgridMailer{
		key:  key,
		from: sgmail.NewEmail(fromName, fromAddress),
		log:  log.With("service", "SendGridMailer"),
	}, nil
}

func (m *sendgridMailer) prepare(msg Email) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		mail.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return mail
}

func (m *sendgridMailer) Send(ctx context.Context, msg Email) error {
	if msg.ToAddress == "" {
		return fmt.Errorf("email has no recipient")
	}
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	m.log.Debug("email sent", "to", msg.ToAddress, "subject", msg.Subject)
	return nil
}

// InvoiceEmail renders the plain-text invoice sent to a client.
func InvoiceEmail(salon models.Salon, client models.Client, inv models.Invoice) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", client.Name)
	fmt.Fprintf(&b, "here is invoice %s from %s dated %s.\n\n",
		inv.InvoiceNumber, salon.Name, inv.InvoiceDate.Format("2006-01-02"))
	for _, item := range inv.Items {
		fmt.Fprintf(&b, "  %-30s x%d  %10.2f\n", item.ServiceName, item.Quantity, item.TotalPrice)
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f\n", inv.Subtotal)
	if inv.Discount > 0 {
		fmt.Fprintf(&b, "Discount: -%.2f\n", inv.Discount)
	}
	if inv.Tax > 0 {
		fmt.Fprintf(&b, "Tax: %.2f%%\n", inv.Tax)
	}
	fmt.Fprintf(&b, "Total: %.2f\n", inv.Total)
	if inv.PaymentStatus != models.PaymentPaid {
		fmt.Fprintf(&b, "Outstanding: %.2f\n", inv.Total-inv.PaidAmount)
	}
	fmt.Fprintf(&b, "\nThank you,\n%s\n", salon.Name)

	return Email{
		ToName:    client.Name,
		ToAddress: client.Email,
		Subject:   fmt.Sprintf("%s invoice %s", salon.Name, inv.InvoiceNumber),
		Text:      b.String(),
	}
}
