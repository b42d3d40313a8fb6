package dummymail

import (
	"sync"

	"github.com/abdulmaxwell/zetech-smart-attend/core"
)

// Service captures rendered messages instead of sending them; test double.
type Service struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*Service)(nil)

func NewService() *Service {
	return &Service{}
}

func (svc *Service) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			continue
		}
		if msg.HasRecipients() {
			svc.sent = append(svc.sent, *msg)
		}
	}
}

// SentMessages returns a snapshot of everything captured so far.
func (svc *Service) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	out := make([]core.EmailMessage, len(svc.sent))
	copy(out, svc.sent)
	return out
}
