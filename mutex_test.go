package eventhub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexExcludesConcurrentHolders(t *testing.T) {
	fp := newFakePort()
	_, stop := startScheduler(t, fp)
	defer stop()

	var m Mutex
	InitMutex(&m)

	var order []string
	done := make(chan struct{})

	_, err := Create("a", 0, 4096, nil, func(any) int {
		require.NoError(t, m.Lock())
		order = append(order, "a-in")
		Yield()
		order = append(order, "a-out")
		m.Unlock()
		return 0
	})
	require.NoError(t, err)

	_, err = Create("b", 0, 4096, nil, func(any) int {
		Yield() // let a grab the lock first
		require.NoError(t, m.Lock())
		order = append(order, "b-in")
		m.Unlock()
		close(done)
		Stop()
		return 0
	})
	require.NoError(t, err)

	<-done
	assert.Equal(t, []string{"a-in", "a-out", "b-in"}, order)
}

func TestMutexTryLock(t *testing.T) {
	fp := newFakePort()
	_, stop := startScheduler(t, fp)
	defer stop()

	var m Mutex
	InitMutex(&m)
	assert.True(t, m.TryLock())
	assert.False(t, m.TryLock())
	m.locked = false
	assert.True(t, m.TryLock())
}
