package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig carries the SMS provider credentials, injected at
// construction.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// SMSNotifier delivers passcodes over SMS via Twilio.
type SMSNotifier struct {
	client *twilio.RestClient
	from   string
}

func NewSMSNotifier(cfg TwilioConfig) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &SMSNotifier{client: client, from: cfg.FromNumber}
}

func (n *SMSNotifier) SendCode(ctx context.Context, destination, code string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(destination)
	params.SetFrom(n.from)
	params.SetBody(fmt.Sprintf("Your CodeQuest verification code is: %s. Valid for 10 minutes.", code))

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send code sms: %w", err)
	}
	return nil
}
