package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioProvider struct {
	client     *twilio.RestClient
	fromNumber string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func NewTwilioProvider(config *TwilioConfig) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})

	return &TwilioProvider{
		client:     client,
		fromNumber: config.FromNumber,
	}
}

func (t *TwilioProvider) SendSMS(ctx context.Context, req *SMSRequest) (*SMSResponse, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(req.To)
	params.SetFrom(t.fromNumber)
	params.SetBody(req.Message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("failed to send SMS via Twilio: %w", err)
	}

	result := &SMSResponse{Provider: "twilio"}
	if resp.Sid != nil {
		result.MessageID = *resp.Sid
	}
	if resp.Status != nil {
		result.Status = *resp.Status
	}

	return result, nil
}

func (t *TwilioProvider) GetProviderName() string {
	return "twilio"
}
