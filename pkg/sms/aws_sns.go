package sms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSProvider struct {
	client   *sns.Client
	senderID string
}

type SNSConfig struct {
	Region   string
	SenderID string
}

func NewSNSProvider(ctx context.Context, config *SNSConfig) (*SNSProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SNSProvider{
		client:   sns.NewFromConfig(cfg),
		senderID: config.SenderID,
	}, nil
}

func (s *SNSProvider) SendSMS(ctx context.Context, req *SMSRequest) (*SMSResponse, error) {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(req.To),
		Message:     aws.String(req.Message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType: aws.String("String"),
				// Emergency traffic must not be throttled as promotional.
				StringValue: aws.String("Transactional"),
			},
		},
	}
	if s.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	resp, err := s.client.Publish(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to send SMS via SNS: %w", err)
	}

	result := &SMSResponse{
		Status:   "published",
		Provider: "aws_sns",
	}
	if resp.MessageId != nil {
		result.MessageID = *resp.MessageId
	}

	return result, nil
}

func (s *SNSProvider) GetProviderName() string {
	return "aws_sns"
}
