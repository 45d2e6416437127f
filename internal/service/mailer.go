package service

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// MailSender delivers account emails. Sends are fire-and-forget: they
// return before delivery finishes and failures never propagate to the
// operation that triggered them.
type MailSender interface {
	SendVerification(to, token string)
	SendReset(to, token string)
}

type Mailer struct {
	enabled  bool
	host     string
	port     int
	username string
	password string
	from     string
	baseURL  string
}

func NewMailer() *Mailer {
	return &Mailer{
		enabled:  viper.GetBool("mail.enabled"),
		host:     viper.GetString("mail.host"),
		port:     viper.GetInt("mail.port"),
		username: viper.GetString("mail.username"),
		password: viper.GetString("mail.password"),
		from:     viper.GetString("mail.from"),
		baseURL:  viper.GetString("host.base_url"),
	}
}

func (m *Mailer) SendVerification(to, token string) {
	link := fmt.Sprintf("%v/verify?token=%v", m.baseURL, token)

	m.send(to, "Verify your email address",
		fmt.Sprintf("Click <a href='%v'>here</a> to verify your account.\n\nThis link is valid for 24 hours", link), link)
}

func (m *Mailer) SendReset(to, token string) {
	link := fmt.Sprintf("%v/reset?token=%v", m.baseURL, token)

	m.send(to, "Reset your password",
		fmt.Sprintf("Click <a href='%v'>here</a> to set a new password.\n\nThis link will expire in 1 hour", link), link)
}

func (m *Mailer) send(to, subject, body, link string) {
	if !m.enabled {
		zap.L().Info("Mail sending disabled, logging link instead",
			zap.String("to", to),
			zap.String("link", link),
		)
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	go func() {
		d := gomail.NewDialer(m.host, m.port, m.username, m.password)

		if err := d.DialAndSend(msg); err != nil {
			zap.L().Error("Failed to send mail",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}
