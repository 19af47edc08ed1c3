package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimech/portal/internal/notify"
	"github.com/agrimech/portal/pkg/queue"
)

type fakeLogs struct {
	mu     sync.Mutex
	begun  map[uuid.UUID]queue.EmailPayload
	status map[uuid.UUID]string
	tries  map[uuid.UUID]int
}

func newFakeLogs() *fakeLogs {
	return &fakeLogs{begun: map[uuid.UUID]queue.EmailPayload{}, status: map[uuid.UUID]string{}, tries: map[uuid.UUID]int{}}
}

func (f *fakeLogs) Begin(_ context.Context, id uuid.UUID, p queue.EmailPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.begun[id]; !ok {
		f.begun[id] = p
		f.status[id] = "pending"
	}
	return nil
}

func (f *fakeLogs) MarkSent(_ context.Context, id uuid.UUID, attempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[id], f.tries[id] = "sent", attempts
	return nil
}

func (f *fakeLogs) MarkFailed(_ context.Context, id uuid.UUID, attempts int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[id], f.tries[id] = "failed", attempts
	return nil
}

func (f *fakeLogs) get(id uuid.UUID) (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status[id], f.tries[id]
}

type fakeSender struct {
	mu    sync.Mutex
	fails int
	sent  []notify.Message
}

func (s *fakeSender) Name() string { return "fake" }

func (s *fakeSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("smtp 451")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func emailJob(t *testing.T) *queue.Job {
	t.Helper()
	body, err := json.Marshal(queue.EmailPayload{EmailType: "email_verification", RecipientEmail: "a@example.com", Subject: "Verify", BodyText: "link"})
	require.NoError(t, err)
	return &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeEmail, Payload: body}
}

func TestProcess_Sends(t *testing.T) {
	logs, sender := newFakeLogs(), &fakeSender{}
	p := NewEmailProcessor(logs, sender, nil, nil)
	job := emailJob(t)

	require.NoError(t, p.Process(context.Background(), job))
	require.Equal(t, 1, sender.count())
	assert.Equal(t, "a@example.com", sender.sent[0].To)

	status, tries := logs.get(uuid.MustParse(job.ID))
	assert.Equal(t, "sent", status)
	assert.Equal(t, 1, tries)
}

func TestProcess_RecordsFailure(t *testing.T) {
	logs, sender := newFakeLogs(), &fakeSender{fails: 1}
	p := NewEmailProcessor(logs, sender, nil, nil)
	job := emailJob(t)

	assert.Error(t, p.Process(context.Background(), job))
	status, tries := logs.get(uuid.MustParse(job.ID))
	assert.Equal(t, "failed", status)
	assert.Equal(t, 1, tries)
}

func TestProcess_RejectsUnknownType(t *testing.T) {
	p := NewEmailProcessor(newFakeLogs(), &fakeSender{}, nil, nil)
	assert.Error(t, p.Process(context.Background(), &queue.Job{ID: uuid.NewString(), Type: "sms"}))
}

func TestRun_RetriesThenDelivers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := queue.NewQueue(client, nil)

	logs, sender := newFakeLogs(), &fakeSender{fails: 1}
	p := NewEmailProcessor(logs, sender, q, nil)
	p.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.NoError(t, q.EnqueueEmail(ctx, queue.EmailPayload{EmailType: "password_reset", RecipientEmail: "b@example.com"}))
	assert.Eventually(t, func() bool { return sender.count() == 1 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.EqualValues(t, 0, client.LLen(context.Background(), queue.QueueDLQ).Val())
}
