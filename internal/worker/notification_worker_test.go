package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/notify"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestMailQueueDeliversOnStop(t *testing.T) {
	next := &recordingMailer{}
	q := NewMailQueue(next, zap.NewNop(), 8)
	q.Start(2)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Send(context.Background(), notify.Message{To: "a@example.com", Subject: "hi"}))
	}
	q.Stop()
	assert.Equal(t, 5, next.count())
}

func TestMailQueueFull(t *testing.T) {
	q := NewMailQueue(&recordingMailer{}, zap.NewNop(), 1)

	require.NoError(t, q.Send(context.Background(), notify.Message{To: "a@example.com"}))
	err := q.Send(context.Background(), notify.Message{To: "b@example.com"})
	assert.ErrorIs(t, err, ErrQueueFull)

	q.Start(1)
	q.Stop()
}

func TestMailQueueSurvivesDeliveryErrors(t *testing.T) {
	next := &recordingMailer{err: errors.New("smtp down")}
	q := NewMailQueue(next, zap.NewNop(), 4)
	q.Start(1)

	require.NoError(t, q.Send(context.Background(), notify.Message{To: "a@example.com"}))
	require.NoError(t, q.Send(context.Background(), notify.Message{To: "b@example.com"}))
	q.Stop()
	q.Stop()
	assert.Equal(t, 2, next.count())
}
