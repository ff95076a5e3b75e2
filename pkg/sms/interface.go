package sms

import "context"

// SMSRequest is a single outbound text message.
type SMSRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SMSResponse reports the provider-side outcome of a send.
type SMSResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Provider  string `json:"provider"`
}

// SMSProvider abstracts the SMS gateway so the dispatch engine can run
// against Twilio, AWS SNS, or a test double.
type SMSProvider interface {
	SendSMS(ctx context.Context, req *SMSRequest) (*SMSResponse, error)
	GetProviderName() string
}
