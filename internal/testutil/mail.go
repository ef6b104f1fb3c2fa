package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/noorhub/internal/app/system/mailer"
)

// MailRecorder is a mailer.Sender that keeps every message.
type MailRecorder struct {
	mu   sync.Mutex
	sent []mailer.Email
	ch   chan struct{}
}

func NewMailRecorder() *MailRecorder {
	return &MailRecorder{ch: make(chan struct{}, 64)}
}

func (m *MailRecorder) Send(e mailer.Email) error {
	m.mu.Lock()
	m.sent = append(m.sent, e)
	m.mu.Unlock()
	select {
	case m.ch <- struct{}{}:
	default:
	}
	return nil
}

// Wait blocks until a message arrives (mail is sent asynchronously) and
// returns it. It fails the test after a second.
func (m *MailRecorder) Wait(t *testing.T) mailer.Email {
	t.Helper()
	select {
	case <-m.ch:
	case <-time.After(time.Second):
		t.Fatal("no email sent")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

// Count returns how many messages were sent so far.
func (m *MailRecorder) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
