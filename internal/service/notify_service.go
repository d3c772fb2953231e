package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"metabridge/internal/models"
)

// NotifyService delivers one-time codes via Amazon SES (email) and SNS (SMS).
// Either channel runs disabled when unconfigured; a disabled channel skips
// sending and logs instead.
type NotifyService struct {
	ses          *sesv2.Client
	sns          *sns.Client
	fromEmail    string
	fromName     string
	smsSenderID  string
	emailEnabled bool
	smsEnabled   bool
}

// NewNotifyService creates a new notification service. With no from-address
// configured the whole service is disabled and sends become logged no-ops.
func NewNotifyService(ctx context.Context, awsRegion, fromEmail, fromName, smsSenderID string) (*NotifyService, error) {
	if fromEmail == "" {
		log.Println("Notification service disabled: SES_FROM_EMAIL not configured")
		return &NotifyService{}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s := &NotifyService{
		ses:          sesv2.NewFromConfig(cfg),
		fromEmail:    fromEmail,
		fromName:     fromName,
		emailEnabled: true,
	}

	if smsSenderID != "" {
		s.sns = sns.NewFromConfig(cfg)
		s.smsSenderID = smsSenderID
		s.smsEnabled = true
	}

	log.Printf("Notification service enabled: from=%s, region=%s, sms=%t", fromEmail, awsRegion, s.smsEnabled)
	return s, nil
}

// IsEnabled returns whether any delivery channel is configured
func (s *NotifyService) IsEnabled() bool {
	return s.emailEnabled || s.smsEnabled
}

// SendOTPCode delivers a login code to the account's registered channels:
// always email, plus SMS when the account has a phone on file. Returns an
// error only when every attempted channel failed.
func (s *NotifyService) SendOTPCode(ctx context.Context, account *models.Account, code string) error {
	if !s.IsEnabled() {
		log.Printf("Skipping OTP send (service disabled): to=%s", account.Email)
		return nil
	}

	var errs []error

	if s.emailEnabled {
		if err := s.sendOTPEmail(ctx, account.Email, account.DisplayName(), code); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if s.smsEnabled && account.Phone != "" {
		if err := s.sendOTPSMS(ctx, account.Phone, code); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}

	if len(errs) > 0 && len(errs) == s.channelCount(account) {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		log.Printf("OTP channel failure (other channel delivered): %v", err)
	}
	return nil
}

func (s *NotifyService) channelCount(account *models.Account) int {
	count := 0
	if s.emailEnabled {
		count++
	}
	if s.smsEnabled && account.Phone != "" {
		count++
	}
	return count
}

// sendOTPEmail sends the code via Amazon SES
func (s *NotifyService) sendOTPEmail(ctx context.Context, toEmail, toName, code string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	subject := "Your MetaBridge OTP Code"
	textBody := fmt.Sprintf(`Hi %s,

Your OTP code is %s. It is valid for 5 minutes.

If you did not try to log in, you can safely ignore this email.

---
This is an automated email from MetaBridge. Please do not reply.
`, toName, code)

	htmlBody := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your OTP code is <strong>%s</strong>. It is valid for 5 minutes.</p>
<p>If you did not try to log in, you can safely ignore this email.</p>
<p style="font-size: 12px; color: #666;">This is an automated email from MetaBridge. Please do not reply.</p>
`, toName, code)

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &sestypes.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &sestypes.Body{
					Html: &sestypes.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &sestypes.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.ses.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("OTP email sent: to=%s", toEmail)
	return nil
}

// sendOTPSMS sends the code via Amazon SNS
func (s *NotifyService) sendOTPSMS(ctx context.Context, phone, code string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(fmt.Sprintf("Your MetaBridge OTP is %s", code)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.smsSenderID),
			},
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}

	if _, err := s.sns.Publish(ctx, input); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", phone, err)
	}

	log.Printf("OTP SMS sent: to=%s", phone)
	return nil
}
