// Package email sends notification emails over SMTP.
package email

import (
	"gopkg.in/gomail.v2"
)

type Client struct {
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
	fromName string
}

func NewClient(smtpHost string, smtpPort int, username, password, from, fromName string) *Client {
	return &Client{
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

func (c *Client) Send(to, subject, body string) error {
	message := gomail.NewMessage()

	message.SetAddressHeader("From", c.from, c.fromName)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	dialer := gomail.NewDialer(c.smtpHost, c.smtpPort, c.username, c.password)

	return dialer.DialAndSend(message)
}
