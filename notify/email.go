package notify

import (
	"os"
	"strconv"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// DigestSender delivers operational digests. Delivery is best effort
// everywhere: a failed send is logged and never propagated.
type DigestSender interface {
	SendDigest(recipients []string, subject string, body string)
}

type smtpSender struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPSender builds a sender from SMTP_* environment variables. With no
// host configured it returns a sender that only logs, so local setups work
// without a mail server.
func NewSMTPSender() DigestSender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return &logSender{}
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port <= 0 {
		port = 587
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@localhost"
	}
	return &smtpSender{
		host: host,
		port: port,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASSWORD"),
		from: from,
	}
}

func (s *smtpSender) SendDigest(recipients []string, subject string, body string) {
	logger := config.GetLogger()
	if len(recipients) == 0 {
		logger.WithFields(logrus.Fields{"module": "notify", "subject": subject}).
			Info("digest skipped, no recipients")
		return
	}

	message := gomail.NewMessage()
	message.SetHeader("From", s.from)
	message.SetHeader("To", recipients...)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	dialer := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	if err := dialer.DialAndSend(message); err != nil {
		config.LogError(logger, "notify", "SendDigest", "digest delivery failed", map[string]interface{}{
			"subject":    subject,
			"recipients": len(recipients),
		}, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"module":     "notify",
		"subject":    subject,
		"recipients": len(recipients),
	}).Info("digest sent")
}

// logSender stands in when SMTP is not configured.
type logSender struct{}

func (l *logSender) SendDigest(recipients []string, subject string, body string) {
	config.GetLogger().WithFields(logrus.Fields{
		"module":     "notify",
		"subject":    subject,
		"recipients": len(recipients),
	}).Info("SMTP not configured, digest logged only")
}
