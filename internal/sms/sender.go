package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/vschac/CSDaily/internal/domain"
)

// TestMessageBody is sent by the "send test message" action.
const TestMessageBody = "This is a test message from CS Daily! Your daily CS concepts will be delivered to this number."

// Sender is the minimal interface components need to send an SMS.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioSender delivers messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a gateway client. The from number must be a
// messaging-capable number owned by the account.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

// Send dispatches one message. Gateway failures are transport errors; the
// message may or may not have left, callers must not assume delivery.
func (s *TwilioSender) Send(_ context.Context, to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: sms send: %v", domain.ErrTransport, err)
	}
	return nil
}
