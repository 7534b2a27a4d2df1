package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	twilio "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Directory resolves an audience id to a reachable phone number.
type Directory interface {
	PhoneFor(ctx context.Context, userID uuid.UUID) (string, error)
}

// SMS delivers notifications over Twilio.
type SMS struct {
	client    *twilio.RestClient
	directory Directory
	from      string
}

func NewSMS(accountSID, authToken, from string, directory Directory) *SMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &SMS{client: client, directory: directory, from: from}
}

func (s *SMS) Notify(ctx context.Context, audienceID uuid.UUID, eventType string, payload map[string]any) error {
	to, err := s.directory.PhoneFor(ctx, audienceID)
	if err != nil {
		return fmt.Errorf("resolving phone for %s: %w", audienceID, err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(messageBody(eventType, payload))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending sms to %s: %w", to, err)
	}

	return nil
}

func messageBody(eventType string, payload map[string]any) string {
	switch eventType {
	case "payment_completed":
		return fmt.Sprintf("Your rent payment of KES %v was received. Receipt: %v.", payload["amount"], payload["receipt"])
	case "payment_failed":
		return fmt.Sprintf("Your rent payment could not be completed: %v.", payload["reason"])
	case "lease_assigned":
		return "You have been assigned to a new unit. Please sign the lease agreement."
	case "lease_signed":
		return "A lease on your unit has been signed."
	case "lease_terminated":
		return "Your lease has been terminated."
	default:
		return fmt.Sprintf("Update from KodiPay: %s", eventType)
	}
}
