package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: smtp.SendMail,
	}
}

// SendReservationConfirmation mails the pickup confirmation for a placed order
func (s *Service) SendReservationConfirmation(to string, r Reservation) error {
	if to == "" {
		return fmt.Errorf("no recipient for reservation %s", r.OrderID)
	}
	body, err := BuildReservationBody(r)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Reservation #%s confirmed for pickup at %s", shortID(r.OrderID), r.Store)
	return s.deliver(to, subject, body)
}

func (s *Service) deliver(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, nil, s.from, []string{to}, buildMessage(s.from, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	// header injection guard
	clean := strings.NewReplacer("\r", "", "\n", "")
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		clean.Replace(from), clean.Replace(to), clean.Replace(subject), body))
}
