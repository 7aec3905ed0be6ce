package inflight

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

func testKey(hash string) domain.InFlightKey {
	return domain.InFlightKey{SiteID: "site-1", TargetLang: "es", Hash: hash}
}

func TestCheckAndSetFirstWins(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	assert.False(t, r.CheckAndSet(testKey("h1")))
	assert.True(t, r.CheckAndSet(testKey("h1")))
	assert.False(t, r.CheckAndSet(testKey("h2")))
}

func TestDeleteAllowsReissue(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	assert.False(t, r.CheckAndSet(testKey("h1")))
	r.Delete(testKey("h1"))
	assert.False(t, r.CheckAndSet(testKey("h1")))
}

func TestExpiredEntryIsTakenOver(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	defer r.Close()

	assert.False(t, r.CheckAndSet(testKey("h1")))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, r.CheckAndSet(testKey("h1")))
}

func TestConcurrentCheckAndSetExactlyOneWinner(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	const goroutines = 50
	var winners atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if !r.CheckAndSet(testKey("contested")) {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), winners.Load())
	assert.Equal(t, 1, r.Len())
}
