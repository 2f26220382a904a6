package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// ErrNoRecipient is returned when a message has no recipient address.
var ErrNoRecipient = errors.New("message has no recipient")

// EmailConfig configures SMTP delivery.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends messages as HTML mail.
type EmailNotifier struct {
	cfg  EmailConfig
	send sendFunc
	now  func() time.Time
}

// NewEmailNotifier creates an SMTP notifier. PLAIN auth is used when a username is set.
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// Notify sends msg to every address in msg.Recipient (comma separated).
func (n *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	to, err := mail.ParseAddressList(msg.Recipient)
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", msg.Recipient, err)
	}
	from, err := mail.ParseAddress(n.cfg.From)
	if err != nil {
		return fmt.Errorf("parse sender %q: %w", n.cfg.From, err)
	}

	rcpt := make([]string, len(to))
	for i, addr := range to {
		rcpt[i] = addr.Address
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	if sendErr := n.send(addr, auth, from.Address, rcpt, n.compose(from, to, msg)); sendErr != nil {
		return fmt.Errorf("send mail via %s: %w", addr, sendErr)
	}
	return nil
}

func (n *EmailNotifier) compose(from *mail.Address, to []*mail.Address, msg Message) []byte {
	var buf bytes.Buffer

	header := func(k, v string) {
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}

	toList := make([]string, len(to))
	for i, addr := range to {
		toList[i] = addr.String()
	}

	header("From", from.String())
	header("To", strings.Join(toList, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", n.now().Format(time.RFC1123Z))
	header("Message-ID", "<"+msg.ID+"@sitelink-report>")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTMLBody)

	return buf.Bytes()
}

