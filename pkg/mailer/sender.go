package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-storefront/pkg/mailer/templates"
)

// OTP purposes shown in the email copy.
const (
	PurposeSignup = "signup"
	PurposeResend = "resend"
)

// OTPMessage is what the auth flows hand to the mail collaborator.
type OTPMessage struct {
	To        string
	Name      string
	Code      string
	Purpose   string
	ExpiresAt time.Time
}

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueSender enqueues OTP emails for the email worker.
type QueueSender struct {
	Pub   Publisher
	Brand mailtpl.Brand
}

func NewQueueSender(pub Publisher, brand mailtpl.Brand) *QueueSender {
	return &QueueSender{Pub: pub, Brand: brand}
}

func (s *QueueSender) SendCode(ctx context.Context, msg OTPMessage) error {
	data := mailtpl.NewEmailOTPData(s.Brand, msg.Name, msg.To, msg.Code,
		mailtpl.WithPurpose(msg.Purpose),
		mailtpl.WithExpiresAt(msg.ExpiresAt),
	)
	return s.Pub.PublishJSON(ctx, EmailJob{To: msg.To, Template: mailtpl.EmailOTP, Data: data})
}

// LogSender is used when MAIL_SEND_ENABLED=false; codes only reach the debug log.
type LogSender struct {
	Logger *logrus.Logger
}

func (s *LogSender) SendCode(_ context.Context, msg OTPMessage) error {
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"to":         msg.To,
			"purpose":    msg.Purpose,
			"code":       msg.Code,
			"expires_at": msg.ExpiresAt.UTC().Format(time.RFC3339),
		}).Debug("mail disabled; otp not sent")
	}
	return nil
}
