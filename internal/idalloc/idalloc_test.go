package idalloc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSmallestFirst(t *testing.T) {
	p := New()
	ctx := context.Background()

	id, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(MinID), id)

	id2, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(MinID+1), id2)
}

func TestPutReclaims(t *testing.T) {
	p := New()
	ctx := context.Background()
	id, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, MaxID-MinID, p.Len())

	p.Put(id)
	assert.Equal(t, MaxID-MinID+1, p.Len())
}

func TestPutDoubleFreePanics(t *testing.T) {
	p := New()
	assert.Panics(t, func() {
		p.Put(MinID)
	})
}

func TestGetBlocksWhenExhausted(t *testing.T) {
	p := New()
	ctx := context.Background()

	ids := make([]uint16, 0, MaxID-MinID+1)
	for i := MinID; i <= MaxID; i++ {
		id, err := p.Get(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, 0, p.Len())

	done := make(chan uint16, 1)
	go func() {
		id, err := p.Get(ctx)
		require.NoError(t, err)
		done <- id
	}()

	select {
	case <-done:
		t.Fatal("Get should have blocked with the pool exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	p.Put(ids[0])

	select {
	case id := <-done:
		assert.Equal(t, ids[0], id)
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock after Put")
	}
}

func TestGetRespectsContextCancellation(t *testing.T) {
	p := New()
	ctx := context.Background()
	for i := MinID; i <= MaxID; i++ {
		_, err := p.Get(ctx)
		require.NoError(t, err)
	}

	cctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Get(cctx)
	require.Error(t, err)
}

func TestConcurrentExclusivity(t *testing.T) {
	p := New()
	ctx := context.Background()
	const n = 600

	var wg sync.WaitGroup
	var mu sync.Mutex
	inFlight := make(map[uint16]bool)
	seen := make(chan uint16, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := p.Get(ctx)
			require.NoError(t, err)
			mu.Lock()
			assert.False(t, inFlight[id], "id %d handed out twice", id)
			inFlight[id] = true
			mu.Unlock()
			time.Sleep(time.Millisecond)
			seen <- id
			mu.Lock()
			delete(inFlight, id)
			mu.Unlock()
			p.Put(id)
		}()
	}
	wg.Wait()
	close(seen)

	count := 0
	for range seen {
		count++
	}
	assert.Equal(t, n, count)
	assert.Equal(t, MaxID-MinID+1, p.Len())
}
