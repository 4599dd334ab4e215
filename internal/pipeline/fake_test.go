package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"

	"github.com/sanspareilsmyn/binavg/internal/message"
)

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	fetchErr  error
	closed    bool
}

func newFakeReader(payloads ...string) *fakeReader {
	r := &fakeReader{}
	for i, p := range payloads {
		r.queue = append(r.queue, kafka.Message{Offset: int64(i), Value: []byte(p)})
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	err := r.fetchErr
	r.mu.Unlock()

	if err != nil {
		return kafka.Message{}, err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

// fakeSink records written averages.
type fakeSink struct {
	mu       sync.Mutex
	records  []message.AverageRecord
	writeErr error
	closed   bool
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) Write(_ context.Context, rec message.AverageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) written() []message.AverageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]message.AverageRecord(nil), s.records...)
}

// fakeWriter records Kafka writes.
type fakeWriter struct {
	msgs     []kafka.Message
	writeErr error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// fakeToken is an already completed paho token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type mqttPublish struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeMQTT records publishes.
type fakeMQTT struct {
	published    []mqttPublish
	publishErr   error
	disconnected bool
}

func (c *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	if c.publishErr != nil {
		return newFakeToken(c.publishErr)
	}
	c.published = append(c.published, mqttPublish{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return newFakeToken(nil)
}

func (c *fakeMQTT) Disconnect(uint) {
	c.disconnected = true
}

var errBoom = errors.New("boom")
