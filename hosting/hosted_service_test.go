package hosting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	startErr error
	mu       sync.Mutex
	stopped  bool
}

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeService) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func TestManagerStopsOnCancel(t *testing.T) {
	a, b := &fakeService{}, &fakeService{}
	m := NewManager(nil).Add(a, b)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, m.Run(ctx))
	assert.True(t, a.isStopped())
	assert.True(t, b.isStopped())
}

func TestManagerStopsOnServiceError(t *testing.T) {
	boom := errors.New("listen failed")
	healthy := &fakeService{}
	m := NewManager(nil).WithStopTimeout(time.Second).Add(healthy, &fakeService{startErr: boom})

	err := m.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, healthy.isStopped())
}
