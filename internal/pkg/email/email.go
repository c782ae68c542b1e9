package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendApprovalEmail(toEmail, toName string) error
	SendRejectionEmail(toEmail, toName string) error
	SendDeletionEmail(toEmail, toName string) error
	SendOTPEmail(toEmail, toName, otp string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	Disabled  bool
	ClientURL string
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(toEmail string, message []byte) error
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) *EmailServiceImpl {
	s := &EmailServiceImpl{
		config: config,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

var layout = template.Must(template.New("layout").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">{{.Heading}}</h2>
		<p>Hello {{.Name}},</p>
		{{range .Paragraphs}}<p>{{.}}</p>
		{{end}}{{if .Code}}<p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
		{{end}}{{if .Link}}<div style="text-align: center; margin: 30px 0;">
			<a href="{{.Link}}" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Open AlumNet</a>
		</div>
		{{end}}<p>Best regards,<br>The AlumNet Team</p>
	</div>
</body>
</html>`))

type message struct {
	Heading    string
	Name       string
	Paragraphs []string
	Code       string
	Link       string
}

// SendApprovalEmail tells a user their account was approved.
func (s *EmailServiceImpl) SendApprovalEmail(toEmail, toName string) error {
	return s.deliver(toEmail, "Your AlumNet account has been approved", message{
		Heading:    "Welcome to AlumNet!",
		Name:       toName,
		Paragraphs: []string{"An administrator has approved your account. You can now log in and connect with the community."},
		Link:       s.loginURL(),
	})
}

// SendRejectionEmail tells a pending user their signup was declined.
func (s *EmailServiceImpl) SendRejectionEmail(toEmail, toName string) error {
	return s.deliver(toEmail, "Your AlumNet registration", message{
		Heading:    "Registration update",
		Name:       toName,
		Paragraphs: []string{"We were unable to approve your registration and it has been removed. Contact the alumni office if you believe this is a mistake."},
	})
}

// SendDeletionEmail tells a user their account was deleted by an administrator.
func (s *EmailServiceImpl) SendDeletionEmail(toEmail, toName string) error {
	return s.deliver(toEmail, "Your AlumNet account has been deleted", message{
		Heading:    "Account deleted",
		Name:       toName,
		Paragraphs: []string{"An administrator has deleted your account along with your posts and uploaded media."},
	})
}

// SendOTPEmail delivers a password reset code.
func (s *EmailServiceImpl) SendOTPEmail(toEmail, toName, otp string) error {
	return s.deliver(toEmail, "Your AlumNet password reset code", message{
		Heading: "Password reset",
		Name:    toName,
		Paragraphs: []string{
			"Use the code below to reset your password. It expires in 60 seconds.",
			"If you did not request a reset, you can ignore this email.",
		},
		Code: otp,
	})
}

func (s *EmailServiceImpl) loginURL() string {
	if s.config.ClientURL == "" {
		return ""
	}
	return strings.TrimRight(s.config.ClientURL, "/") + "/login"
}

func (s *EmailServiceImpl) deliver(toEmail, subject string, m message) error {
	if s.config.Disabled || s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("Email delivery disabled or SMTP credentials not configured, email not sent")
		return nil
	}

	var body bytes.Buffer
	if err := layout.Execute(&body, m); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body.Bytes())

	if err := s.send(toEmail, msg.Bytes()); err != nil {
		s.logger.Error().Err(err).Str("toEmail", toEmail).Str("subject", subject).Msg("Failed to send email")
		return err
	}
	s.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}

func (s *EmailServiceImpl) sendSMTP(toEmail string, message []byte) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, message); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	return w.Close()
}
