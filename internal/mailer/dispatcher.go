package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

var (
	ErrQueueFull = errors.New("mail queue is full")
	ErrClosed    = errors.New("mail dispatcher is closed")
)

const (
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
	sendTimeout     = 30 * time.Second
)

type Dispatcher struct {
	sender  Sender
	log     *slog.Logger
	queue   chan Message
	retries uint64
	backoff time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type Option func(*Dispatcher)

func WithRetry(retries uint64, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		d.retries = retries
		d.backoff = backoff
	}
}

func NewDispatcher(sender Sender, log *slog.Logger, workers, queueSize int, opts ...Option) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = slog.Default()
	}

	d := &Dispatcher{
		sender:  sender,
		log:     log.With("component", "mailer"),
		queue:   make(chan Message, queueSize),
		retries: defaultAttempts,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(workers)
	for i := range workers {
		go d.worker(i)
	}
	return d
}

// Enqueue never blocks. A full queue drops the message.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		d.log.Error("mail_dropped", "reason", "queue full", "to", msg.To)
		return ErrQueueFull
	}
}

// Close stops accepting mail and waits for queued messages to be delivered or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for msg := range d.queue {
		if err := d.deliver(msg); err != nil {
			d.log.Error("mail_send_failed", "worker", id, "to", msg.To, "subject", msg.Subject, "error", err)
			continue
		}
		d.log.Info("mail_sent", "worker", id, "to", msg.To, "subject", msg.Subject)
	}
}

func (d *Dispatcher) deliver(msg Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	b := retry.WithMaxRetries(d.retries, retry.NewExponential(d.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Warn("mail_send_retry", "to", msg.To, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
