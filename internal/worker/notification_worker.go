package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/notify"
	"github.com/spec-kit/support-accounts/internal/service"
)

// ErrQueueFull is returned when the mail queue cannot accept more messages.
var ErrQueueFull = errors.New("mail queue full")

// MailQueue delivers messages on background goroutines so request handlers
// never wait on SMTP. It implements notify.Mailer.
type MailQueue struct {
	next    notify.Mailer
	logger  *zap.Logger
	jobs    chan notify.Message
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
}

// NewMailQueue wraps next with a buffered queue.
func NewMailQueue(next notify.Mailer, logger *zap.Logger, size int) *MailQueue {
	if size <= 0 {
		size = 64
	}
	return &MailQueue{
		next:    next,
		logger:  logger,
		jobs:    make(chan notify.Message, size),
		timeout: 30 * time.Second,
	}
}

// Start launches the delivery goroutines.
func (q *MailQueue) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
}

// Send enqueues msg without blocking.
func (q *MailQueue) Send(_ context.Context, msg notify.Message) error {
	select {
	case q.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued messages to drain.
func (q *MailQueue) Stop() {
	q.once.Do(func() { close(q.jobs) })
	q.wg.Wait()
}

func (q *MailQueue) run() {
	defer q.wg.Done()
	for msg := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.next.Send(ctx, msg); err != nil {
			q.logger.Warn("mail delivery failed", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		}
		cancel()
	}
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
