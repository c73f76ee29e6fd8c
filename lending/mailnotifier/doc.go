// Package mailnotifier implements lending.Notifier by sending e-mail over SMTP.
//
// One call to Send produces one message addressed to all recipients in Bcc, so customers
// never see each other's addresses. Transient SMTP failures are retried with exponential
// backoff; see shell.RetryWithExponentialBackoff for the schedule.
//
// The SMTP transport is hidden behind the Sender interface. SMTPSender is the production
// implementation on top of github.com/wneessen/go-mail.
package mailnotifier
