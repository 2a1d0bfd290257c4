package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig carries the mail provider credentials. Injected at
// construction; nothing here lives in process-wide state.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier delivers passcodes and subscription confirmations over SMTP.
type EmailNotifier struct {
	client *mail.Client
	from   string
}

func NewEmailNotifier(cfg SMTPConfig) (*EmailNotifier, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &EmailNotifier{client: client, from: cfg.From}, nil
}

func (n *EmailNotifier) SendCode(ctx context.Context, destination, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(destination); err != nil {
		return fmt.Errorf("set to: %w", err)
	}

	msg.Subject("Your CodeQuest verification code")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your verification code is: %s\n\nIt is valid for 10 minutes. If you didn't request this code, ignore this message.\n",
		code,
	))

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send code email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) SendSubscriptionConfirmation(ctx context.Context, destination string, details SubscriptionDetails) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(destination); err != nil {
		return fmt.Errorf("set to: %w", err)
	}

	msg.Subject("Your CodeQuest subscription confirmation")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Thank you for subscribing to CodeQuest!\n\nPlan: %s\nStart date: %s\nEnd date: %s\n\nYour subscription is now active. You can post questions according to your plan limits.\n",
		details.Plan, details.StartsAt, details.EndsAt,
	))

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send subscription email: %w", err)
	}
	return nil
}
