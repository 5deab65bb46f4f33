package testutils

import (
	"errors"
	"sync"
)

// SentMail records one SendTemplate call.
type SentMail struct {
	Template string
	To       []string
	Subject  string
	Category string
	Data     map[string]any
}

// MailRecorder is an in-memory MailSender for tests.
type MailRecorder struct {
	mu       sync.Mutex
	Sent     []SentMail
	FailNext bool
}

func (m *MailRecorder) SendTemplate(templateName string, to []string, subject, category string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext {
		m.FailNext = false
		return errors.New("smtp connection refused")
	}

	m.Sent = append(m.Sent, SentMail{
		Template: templateName,
		To:       to,
		Subject:  subject,
		Category: category,
		Data:     data,
	})
	return nil
}

func (m *MailRecorder) Last() *SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Sent) == 0 {
		return nil
	}
	return &m.Sent[len(m.Sent)-1]
}
