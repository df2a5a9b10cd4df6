// Package mailer sends transactional mail through an external provider.
package mailer

import "context"

// Message contains the data needed to send an email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers transactional mail.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
