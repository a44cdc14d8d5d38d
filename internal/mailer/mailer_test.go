package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"disaster-relief-api-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationEscapesInput(t *testing.T) {
	msg, err := Confirmation("v@example.org", ConfirmationData{
		ID: "abc", Name: "<b>Asha</b>", Location: "Kochi", People: 4, Priority: "High",
	})
	require.NoError(t, err)
	assert.Equal(t, "v@example.org", msg.To)
	assert.Contains(t, msg.HTML, "abc")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Asha&lt;/b&gt;")
	assert.Contains(t, msg.HTML, "<strong>People Affected:</strong> 4")
}

func TestNewSenderWithoutHostIsNop(t *testing.T) {
	_, ok := NewSender(config.SMTPConfig{}).(Nop)
	assert.True(t, ok)
}

func TestSMTPSenderSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	s := &SMTPSender{
		cfg: config.SMTPConfig{Host: "smtp.example.org", Port: 587, User: "bot@example.org", FromName: "DisasterLink Team"},
		send: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
			return nil
		},
	}

	require.NoError(t, s.Send(context.Background(), Message{To: "v@example.org", Subject: "Hi", HTML: "<p>x</p>"}))
	assert.Equal(t, "smtp.example.org:587", gotAddr)
	assert.Equal(t, "bot@example.org", gotFrom)
	assert.Equal(t, []string{"v@example.org"}, gotTo)
	assert.Contains(t, string(gotBody), "Content-Type: text/html")

	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	assert.ErrorContains(t, s.Send(context.Background(), Message{To: "v@example.org"}), "refused")
}

func TestContactTemplates(t *testing.T) {
	notice, err := ContactNotice("support@example.org", ContactData{
		ID: "q1", Name: "Asha", Email: "asha@example.org", QueryType: "Volunteering",
		Subject: "Joining", Message: "line one\n<script>",
	})
	require.NoError(t, err)
	assert.Equal(t, "[Volunteering] - Joining", notice.Subject)
	assert.Contains(t, notice.HTML, "line one<br>&lt;script&gt;")
	assert.Contains(t, notice.HTML, "Not provided")
	assert.Contains(t, notice.HTML, "ID: q1")

	reply, err := ContactReply("asha@example.org", ReplyData{Name: "Asha", Subject: "Joining", Reply: "Welcome\naboard", Original: "line one"})
	require.NoError(t, err)
	assert.Equal(t, "Re: Joining", reply.Subject)
	assert.Contains(t, reply.HTML, "Welcome<br>aboard")
}
