package mailnotifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

var (
	ErrEmptyHost        = errors.New("smtp host must not be empty")
	ErrInvalidPort      = errors.New("smtp port must be between 1 and 65535")
	ErrInvalidTimeout   = errors.New("smtp timeout must be positive")
	ErrMissingFrom      = errors.New("envelope sender must not be empty")
	ErrMissingRecipient = errors.New("envelope needs at least one recipient")
	ErrInvalidAddress   = errors.New("invalid mail address")
)

// Envelope is one outgoing message.
type Envelope struct {
	From    string
	Bcc     []string
	Subject string
	Body    string
}

// Validate checks that the envelope can be delivered.
func (e Envelope) Validate() error {
	if e.From == "" {
		return ErrMissingFrom
	}

	if len(e.Bcc) == 0 {
		return ErrMissingRecipient
	}

	return nil
}

// Sender delivers envelopes.
type Sender interface {
	Send(ctx context.Context, envelope Envelope) error
}

// SMTPSender delivers envelopes over SMTP, opening one connection per envelope.
type SMTPSender struct {
	client *mail.Client
}

var _ Sender = (*SMTPSender)(nil)

type smtpSettings struct {
	port       int
	username   string
	password   string
	requireTLS bool
	timeout    time.Duration
}

// SMTPOption configures an SMTPSender.
type SMTPOption func(*smtpSettings) error

// WithPort sets the SMTP port. Default is 25.
func WithPort(port int) SMTPOption {
	return func(s *smtpSettings) error {
		if port <= 0 || port > 65535 {
			return ErrInvalidPort
		}

		s.port = port

		return nil
	}
}

// WithCredentials enables SMTP PLAIN authentication.
func WithCredentials(username, password string) SMTPOption {
	return func(s *smtpSettings) error {
		s.username = username
		s.password = password

		return nil
	}
}

// WithRequiredTLS refuses to send without STARTTLS. Without it TLS is used when the server offers it.
func WithRequiredTLS() SMTPOption {
	return func(s *smtpSettings) error {
		s.requireTLS = true
		return nil
	}
}

// WithTimeout sets the dial and I/O timeout.
func WithTimeout(timeout time.Duration) SMTPOption {
	return func(s *smtpSettings) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}

		s.timeout = timeout

		return nil
	}
}

// NewSMTPSender creates an SMTPSender for host.
func NewSMTPSender(host string, options ...SMTPOption) (*SMTPSender, error) {
	if host == "" {
		return nil, ErrEmptyHost
	}

	settings := &smtpSettings{
		port:    25,
		timeout: 15 * time.Second,
	}

	for _, option := range options {
		if err := option(settings); err != nil {
			return nil, err
		}
	}

	tlsPolicy := mail.TLSOpportunistic
	if settings.requireTLS {
		tlsPolicy = mail.TLSMandatory
	}

	clientOptions := []mail.Option{
		mail.WithPort(settings.port),
		mail.WithTLSPolicy(tlsPolicy),
		mail.WithTimeout(settings.timeout),
	}

	if settings.username != "" {
		clientOptions = append(
			clientOptions,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(settings.username),
			mail.WithPassword(settings.password),
		)
	}

	client, err := mail.NewClient(host, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{client: client}, nil
}

// Send delivers the envelope. The context bounds dialing and the SMTP conversation.
func (s *SMTPSender) Send(ctx context.Context, envelope Envelope) error {
	msg, err := buildMessage(envelope)
	if err != nil {
		return err
	}

	if err = s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

func buildMessage(envelope Envelope) (*mail.Msg, error) {
	if err := envelope.Validate(); err != nil {
		return nil, err
	}

	msg := mail.NewMsg()

	if err := msg.From(envelope.From); err != nil {
		return nil, errors.Join(ErrInvalidAddress, fmt.Errorf("sender %q: %w", envelope.From, err))
	}

	if err := msg.Bcc(envelope.Bcc...); err != nil {
		return nil, errors.Join(ErrInvalidAddress, fmt.Errorf("recipients: %w", err))
	}

	msg.Subject(envelope.Subject)
	msg.SetBodyString(mail.TypeTextPlain, envelope.Body)

	return msg, nil
}
