package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) TestInitialState() {
	b := New("customer-cache")
	s.False(b.IsOpen())
	s.Equal(StateClosed, b.State())
	s.Equal("customer-cache", b.Name())
	s.Equal("closed", b.State().String())
}

func (s *BreakerSuite) TestOpening() {
	s.Run("opens on the threshold failure", func() {
		b := New("cache", WithFailureThreshold(3))

		useFallback, change := b.RecordFailure()
		s.False(useFallback)
		s.False(change.Opened)

		useFallback, change = b.RecordFailure()
		s.False(useFallback)
		s.False(change.Opened)

		useFallback, change = b.RecordFailure()
		s.True(useFallback)
		s.True(change.Opened)
		s.True(b.IsOpen())
		s.Equal("open", b.State().String())
	})

	s.Run("failures while open report fallback without a transition", func() {
		b := New("cache", WithFailureThreshold(1))
		b.RecordFailure()

		useFallback, change := b.RecordFailure()
		s.True(useFallback)
		s.False(change.Opened)
	})

	s.Run("success while closed resets the failure count", func() {
		b := New("cache", WithFailureThreshold(3))
		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordFailure()
		s.False(b.IsOpen())

		b.RecordFailure()
		s.True(b.IsOpen())
	})
}

func (s *BreakerSuite) TestClosing() {
	s.Run("closes after the success threshold", func() {
		b := New("cache", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()

		usePrimary, change := b.RecordSuccess()
		s.False(usePrimary)
		s.False(change.Closed)
		s.True(b.IsOpen())

		usePrimary, change = b.RecordSuccess()
		s.True(usePrimary)
		s.True(change.Closed)
		s.False(b.IsOpen())
	})

	s.Run("a failure while open restarts the success count", func() {
		b := New("cache", WithFailureThreshold(1), WithSuccessThreshold(3))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()
		s.True(b.IsOpen())

		b.RecordSuccess()
		b.RecordSuccess()
		s.True(b.IsOpen())
		b.RecordSuccess()
		s.False(b.IsOpen())
	})
}

func (s *BreakerSuite) TestIgnoresNonPositiveThresholds() {
	b := New("cache", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for range 4 {
		b.RecordFailure()
	}
	s.False(b.IsOpen(), "default threshold of 5 should still apply")
	b.RecordFailure()
	s.True(b.IsOpen())
}

func TestBreaker_ConcurrentUse(t *testing.T) {
	b := New("cache", WithFailureThreshold(50))
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.RecordFailure()
		}()
	}
	wg.Wait()
	assert.True(t, b.IsOpen())
}
