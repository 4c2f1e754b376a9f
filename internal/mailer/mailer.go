package mailer

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Message is one outbound plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender performs the actual delivery.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Mailer queues messages and delivers them on a background worker. Queue
// never blocks the caller: when the buffer is full the message is dropped
// and logged. Delivery failures are logged, not retried.
type Mailer struct {
	sender Sender
	queue  chan Message

	closeOnce sync.Once
	done      chan struct{}
}

func New(sender Sender, bufferSize int) *Mailer {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	m := &Mailer{
		sender: sender,
		queue:  make(chan Message, bufferSize),
		done:   make(chan struct{}),
	}
	go m.run()

	return m
}

func (m *Mailer) Queue(msg Message) {
	select {
	case m.queue <- msg:
	default:
		log.Warn().Str("to", msg.To).Str("subject", msg.Subject).Msg("mailer: queue full, dropping message")
	}
}

// Close stops accepting messages and drains the queue before returning.
func (m *Mailer) Close() {
	m.closeOnce.Do(func() {
		close(m.queue)
		<-m.done
	})
}

func (m *Mailer) run() {
	defer close(m.done)

	for msg := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := m.sender.Send(ctx, msg); err != nil {
			log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("mailer: send failed")
		}
		cancel()
	}
}
