package mailnotifier

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/shell"
)

const (
	// MetricNotifications counts notification mails, labeled by status (success, error).
	MetricNotifications = "mail_notifications_total"

	// DefaultSubject is the subject of overdue notification mails.
	DefaultSubject = "Book with loan overdue"

	retryOperation = "mail_send"

	logMsgSent      = "overdue notification sent"
	logMsgFailed    = "overdue notification failed"
	logAttrRecips   = "recipients"
	logAttrAttempts = "attempts"
	logAttrError    = "error"
	logAttrExhaust  = "retries_exhausted"
	labelStatus     = "status"
)

// ErrNilSender is returned when a Notifier is created without a Sender.
var ErrNilSender = errors.New("mail sender must not be nil")

// Notifier is a lending.Notifier that mails the message to all recipients in one Bcc message.
type Notifier struct {
	sender       Sender
	from         string
	subject      string
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	instr        shell.Instrumentation
}

var _ lending.Notifier = (*Notifier)(nil)

// Option defines a functional option for configuring the Notifier.
type Option func(*Notifier) error

// WithSubject overrides DefaultSubject.
func WithSubject(subject string) Option {
	return func(n *Notifier) error {
		n.subject = subject
		return nil
	}
}

// WithMaxAttempts sets how often a failing delivery is attempted, the first attempt included.
func WithMaxAttempts(attempts int) Option {
	return func(n *Notifier) error {
		if attempts <= 0 {
			return shell.ErrInvalidMaxAttempts
		}

		n.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the backoff base delay.
func WithBaseDelay(delay time.Duration) Option {
	return func(n *Notifier) error {
		if delay < 0 {
			return shell.ErrNegativeBaseDelay
		}

		n.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the backoff jitter, between 0.0 and 1.0.
func WithJitterFactor(factor float64) Option {
	return func(n *Notifier) error {
		if factor < 0.0 || factor > 1.0 {
			return shell.ErrInvalidJitterFactor
		}

		n.jitterFactor = factor

		return nil
	}
}

// WithMetrics sets the metrics collector for delivery and retry metrics.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(n *Notifier) error {
		n.instr.Metrics = collector
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger lending.Logger) Option {
	return func(n *Notifier) error {
		n.instr.Logger = logger
		return nil
	}
}

// WithContextualLogger sets a contextual logger, it takes precedence over the plain logger.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(n *Notifier) error {
		n.instr.ContextualLogger = logger
		return nil
	}
}

// New creates a Notifier sending as from.
func New(sender Sender, from string, options ...Option) (*Notifier, error) {
	if sender == nil {
		return nil, ErrNilSender
	}

	if from == "" {
		return nil, ErrMissingFrom
	}

	n := &Notifier{
		sender:       sender,
		from:         from,
		subject:      DefaultSubject,
		maxAttempts:  3,
		baseDelay:    time.Second,
		jitterFactor: 0.3,
	}

	for _, option := range options {
		if err := option(n); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// Send mails message to recipients. Without recipients nothing is sent.
func (n *Notifier) Send(ctx context.Context, message string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}

	envelope := Envelope{
		From:    n.from,
		Bcc:     append([]string(nil), recipients...),
		Subject: n.subject,
		Body:    message,
	}

	meta, err := shell.RetryWithExponentialBackoff(
		ctx,
		func(ctx context.Context) error {
			return n.sender.Send(ctx, envelope)
		},
		n.retryOptions()...,
	)

	if err != nil {
		n.recordDelivery(ctx, shell.StatusError)
		shell.LogError(
			ctx,
			n.instr,
			logMsgFailed,
			logAttrRecips, len(recipients),
			logAttrAttempts, meta.Attempts,
			logAttrExhaust, meta.Exhausted,
			logAttrError, err.Error(),
		)

		return err
	}

	n.recordDelivery(ctx, shell.StatusSuccess)
	shell.LogInfo(ctx, n.instr, logMsgSent, logAttrRecips, len(recipients), logAttrAttempts, meta.Attempts)

	return nil
}

func (n *Notifier) retryOptions() []shell.RetryOption {
	options := []shell.RetryOption{
		shell.WithMaxAttempts(n.maxAttempts),
		shell.WithBaseDelay(n.baseDelay),
		shell.WithJitterFactor(n.jitterFactor),
		shell.WithRetryable(isRetryable),
		shell.WithRetryLogging(n.instr.Logger, n.instr.ContextualLogger),
	}

	if n.instr.Metrics != nil {
		options = append(options, shell.WithRetryMetrics(n.instr.Metrics, retryOperation))
	}

	return options
}

func (n *Notifier) recordDelivery(ctx context.Context, status string) {
	shell.IncrementCounter(ctx, n.instr.Metrics, MetricNotifications, map[string]string{labelStatus: status})
}

// isRetryable does not retry malformed envelopes, they fail the same way every time.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrMissingFrom), errors.Is(err, ErrMissingRecipient):
		return false
	default:
		return shell.IsRetryableByDefault(err)
	}
}
