// Package mailer sends transactional email. Every send is best effort from
// the caller's point of view.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"disaster-relief-api-server/config"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Nop is used when SMTP is not configured.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }

type SMTPSender struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSender returns an SMTP sender, or Nop when no host is set.
func NewSender(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		log.Println("[mailer] SMTP host not configured, email disabled")
		return Nop{}
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

func (s *SMTPSender) from() string {
	addr := s.cfg.FromAddress
	if addr == "" {
		addr = s.cfg.User
	}
	return addr
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, s.from(), []string{msg.To}, s.build(msg)); err != nil {
		return fmt.Errorf("sending email to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", s.cfg.FromName), s.from())
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.HTML, "\n", "\r\n"))
	return b.Bytes()
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h1 style="color: #333;">Request Confirmation</h1>
<p>Dear {{.Name}},</p>
<p>Thank you for reaching out to DisasterLink. Your help request has been successfully submitted and is now pending review.</p>
<p><strong>Your Request ID is:</strong> {{.ID}}</p>
<p>Please save this ID to track the status of your request on our website.</p>
<hr>
<h3>Request Summary:</h3>
<ul>
  <li><strong>Location:</strong> {{.Location}}</li>
  <li><strong>People Affected:</strong> {{.People}}</li>
  <li><strong>Priority:</strong> {{.Priority}}</li>
</ul>
<p>Our team is reviewing your request and help will be on its way shortly. Please stay safe.</p>
<p>Best regards,<br>The DisasterLink Team</p>
`))

// ConfirmationData feeds the request confirmation template.
type ConfirmationData struct {
	ID       string
	Name     string
	Location string
	People   int
	Priority string
}

func Confirmation(to string, data ConfirmationData) (Message, error) {
	var b bytes.Buffer
	if err := confirmationTmpl.Execute(&b, data); err != nil {
		return Message{}, fmt.Errorf("rendering confirmation email: %w", err)
	}
	return Message{
		To:      to,
		Subject: "Your Help Request has been Received | DisasterLink",
		HTML:    b.String(),
	}, nil
}

var credentialsTmpl = template.Must(template.New("credentials").Parse(`<p>Hello {{.Name}},</p>
<p>An account has been created for you on DisasterLink.</p>
<p>Here are your login credentials:<br>Email: {{.Email}}<br>Password: {{.Password}}</p>
<p>Please log in and change your password at your earliest convenience.</p>
<p>Best regards,<br>The DisasterLink Team</p>
`))

type CredentialsData struct {
	Name     string
	Email    string
	Password string
}

func Credentials(to string, data CredentialsData) (Message, error) {
	var b bytes.Buffer
	if err := credentialsTmpl.Execute(&b, data); err != nil {
		return Message{}, fmt.Errorf("rendering credentials email: %w", err)
	}
	return Message{To: to, Subject: "Your DisasterLink Account Credentials", HTML: b.String()}, nil
}

var lineFuncs = template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}

var contactNoticeTmpl = template.Must(template.New("contactNotice").Funcs(lineFuncs).Parse(`<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone Number:</strong> {{if .PhoneNumber}}{{.PhoneNumber}}{{else}}Not provided{{end}}</p>
<p><strong>Query Type:</strong> {{.QueryType}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{range $i, $l := lines .Message}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
<hr>
<p>This query has been saved to the admin dashboard with ID: {{.ID}}</p>
`))

type ContactData struct {
	ID          string
	Name        string
	Email       string
	PhoneNumber string
	QueryType   string
	Subject     string
	Message     string
}

// ContactNotice forwards a contact form submission to the support mailbox.
func ContactNotice(to string, data ContactData) (Message, error) {
	var b bytes.Buffer
	if err := contactNoticeTmpl.Execute(&b, data); err != nil {
		return Message{}, fmt.Errorf("rendering contact notice: %w", err)
	}
	return Message{To: to, Subject: fmt.Sprintf("[%s] - %s", data.QueryType, data.Subject), HTML: b.String()}, nil
}

var contactReplyTmpl = template.Must(template.New("contactReply").Funcs(lineFuncs).Parse(`<p>Hello {{.Name}},</p>
<p>Thank you for contacting DisasterLink. Here is a response to your query:</p>
<blockquote style="border-left: 2px solid #ccc; padding-left: 1rem; margin-left: 1rem; color: #555;">{{range $i, $l := lines .Reply}}{{if $i}}<br>{{end}}{{$l}}{{end}}</blockquote>
<p>If you have any further questions, please feel free to reply to this email.</p>
<p>Best regards,<br>The DisasterLink Team</p>
<hr style="border: none; border-top: 1px solid #eee; margin-top: 2rem;" />
<p style="font-size: 0.8rem; color: #777;">Original Message:<br><em>"{{.Original}}"</em></p>
`))

type ReplyData struct {
	Name     string
	Subject  string
	Reply    string
	Original string
}

func ContactReply(to string, data ReplyData) (Message, error) {
	var b bytes.Buffer
	if err := contactReplyTmpl.Execute(&b, data); err != nil {
		return Message{}, fmt.Errorf("rendering contact reply: %w", err)
	}
	return Message{To: to, Subject: "Re: " + data.Subject, HTML: b.String()}, nil
}
