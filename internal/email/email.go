// Package email relays notification text to responsible staff by SMTP.
package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"vols-bot/internal/config"
)

type Service struct {
	cfg config.SMTP
}

func New(cfg config.SMTP) *Service {
	return &Service{cfg: cfg}
}

// IsConfigured reports whether the relay has enough settings to dial.
// An unconfigured relay is skipped silently by the dispatcher.
func (s *Service) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

func (s *Service) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("smtp not configured")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}
