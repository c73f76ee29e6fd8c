package mailnotifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func Test_buildMessage_Addresses_Everyone_In_Bcc(t *testing.T) {
	// act
	msg, err := buildMessage(Envelope{
		From:    "library@example.com",
		Bcc:     []string{"a@example.com", "b@example.com"},
		Subject: "Book with loan overdue",
		Body:    "Please return your book.",
	})

	// assert
	require.NoError(t, err)

	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, recipients)
	assert.Empty(t, msg.GetTo())
	assert.Equal(t, []string{"Book with loan overdue"}, msg.GetGenHeader(mail.HeaderSubject))
}

func Test_buildMessage_Rejects_Bad_Envelopes(t *testing.T) {
	testCases := []struct {
		name     string
		envelope Envelope
		wantErr  error
	}{
		{"no sender", Envelope{Bcc: []string{"a@example.com"}}, ErrMissingFrom},
		{"no recipients", Envelope{From: "library@example.com"}, ErrMissingRecipient},
		{"bad sender", Envelope{From: "library", Bcc: []string{"a@example.com"}}, ErrInvalidAddress},
		{"bad recipient", Envelope{From: "library@example.com", Bcc: []string{"a at example"}}, ErrInvalidAddress},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildMessage(tc.envelope)

			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func Test_NewSMTPSender_Validates_Settings(t *testing.T) {
	_, err := NewSMTPSender("")
	assert.ErrorIs(t, err, ErrEmptyHost)

	_, err = NewSMTPSender("localhost", WithPort(0))
	assert.ErrorIs(t, err, ErrInvalidPort)

	_, err = NewSMTPSender("localhost", WithTimeout(0))
	assert.ErrorIs(t, err, ErrInvalidTimeout)

	sender, err := NewSMTPSender("localhost", WithPort(1025), WithCredentials("user", "secret"), WithRequiredTLS())
	require.NoError(t, err)
	assert.NotNil(t, sender)
}

func Test_SMTPSender_Send_Fails_Fast_On_Bad_Envelope(t *testing.T) {
	sender, err := NewSMTPSender("localhost")
	require.NoError(t, err)

	err = sender.Send(context.Background(), Envelope{From: "library@example.com"})

	assert.ErrorIs(t, err, ErrMissingRecipient)
}
