package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender sends mail through the SendGrid v3 API
type SendGridSender struct {
	key  string
	from *sgmail.Email
}

// NewSendGridSender creates a new SendGridSender
func NewSendGridSender(key, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		key:  key,
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if msg.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	return m
}

// Send posts the message to SendGrid
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}
