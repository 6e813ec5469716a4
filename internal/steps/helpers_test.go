package steps

import (
	"context"
	"sync"

	"creatoros/internal/completion"
)

// stubClient returns a canned response or error instead of calling the
// completion service. It records the last request for prompt assertions.
type stubClient struct {
	mu       sync.Mutex
	response string
	err      error
	lastReq  completion.Request
}

func (s *stubClient) Complete(ctx context.Context, req completion.Request) (string, error) {
	s.mu.Lock()
	s.lastReq = req
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubClient) last() completion.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

type emitted struct {
	Topic   string
	Payload any
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recordingEmitter) Emit(ctx context.Context, topic string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{Topic: topic, Payload: payload})
}

func (r *recordingEmitter) all() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emitted(nil), r.events...)
}
