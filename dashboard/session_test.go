package dashboard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions(t *testing.T) {
	t.Parallel()
	s := NewSessions(map[string]string{MetricControl: "Volume"})

	a := s.New()
	b := s.New()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "Volume", a.Values[MetricControl])

	require.NoError(t, s.Set(a.ID, MetricControl, "Close"))
	assert.Equal(t, "Close", s.Value(a.ID, MetricControl))
	assert.Equal(t, "Volume", s.Value(b.ID, MetricControl))
	assert.Equal(t, "Volume", s.Value("nobody", MetricControl))
	assert.Equal(t, "", s.Value(a.ID, "other"))

	got, ok := s.Get(a.ID)
	require.True(t, ok)
	got.Values[MetricControl] = "Open"
	assert.Equal(t, "Close", s.Value(a.ID, MetricControl), "Get returns a copy")

	assert.ErrorIs(t, s.Set("nobody", MetricControl, "High"), ErrUnknownSession)

	s.Remove(a.ID)
	_, ok = s.Get(a.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSessionsPrune(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(nil)
	s.now = func() time.Time { return now }

	old := s.New()
	now = now.Add(20 * time.Minute)
	fresh := s.New()
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, s.Prune(30*time.Minute))
	_, ok := s.Get(old.ID)
	assert.False(t, ok)
	_, ok = s.Get(fresh.ID)
	assert.True(t, ok)

	// activity keeps a session alive
	require.NoError(t, s.Set(fresh.ID, MetricControl, "High"))
	now = now.Add(29 * time.Minute)
	assert.Equal(t, 0, s.Prune(30*time.Minute))
}

func TestSessionsConcurrent(t *testing.T) {
	t.Parallel()
	s := NewSessions(map[string]string{MetricControl: "Volume"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := s.New()
			for j := 0; j < 50; j++ {
				_ = s.Set(sess.ID, MetricControl, "High")
				_ = s.Value(sess.ID, MetricControl)
			}
			s.Prune(time.Hour)
			s.Remove(sess.ID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, s.Len())
}
