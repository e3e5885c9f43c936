package mailer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type Message struct {
	To          []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

func (m Message) sendable() bool {
	return len(m.To) > 0 && (m.TextContent != "" || m.HTMLContent != "")
}

// Mailer delivers messages in the background.
type Mailer interface {
	Send(ctx context.Context, msgs ...Message)
}

// LogMailer is used when SendGrid is not configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msgs ...Message) {
	for _, m := range msgs {
		log.Printf("[MAIL] (not sent) to=%v subject=%q", m.To, m.Subject)
	}
}

type sendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

// New returns a SendGrid mailer, or a LogMailer when apiKey is empty.
func New(apiKey string, from mail.Address, appName string) Mailer {
	if apiKey == "" {
		return LogMailer{}
	}
	return &sendgridMailer{
		key:        apiKey,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + appName + "] ",
	}
}

func (svc *sendgridMailer) Send(_ context.Context, msgs ...Message) {
	for _, msg := range msgs {
		msg := msg
		if !msg.sendable() {
			continue
		}
		go svc.send(msg)
	}
}

func (svc *sendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func (svc *sendgridMailer) send(msg Message) {
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		log.Printf("[ERROR] sending email: %v", err)
		return
	}
	if res.StatusCode >= http.StatusBadRequest {
		log.Printf("[ERROR] %s", fmt.Sprintf("sending email - status: %d - body: %s", res.StatusCode, res.Body))
	}
}
