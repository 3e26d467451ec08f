package timerqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	id     int
	expire int64
	interv int64
	attr   uint8
}

func (e *fakeEntry) Expire() int64       { return e.expire }
func (e *fakeEntry) SetExpire(v int64)   { e.expire = v }
func (e *fakeEntry) Interval() int64     { return e.interv }
func (e *fakeEntry) AutoCirculation() bool { return e.attr&1 != 0 }
func (e *fakeEntry) NowTimeBase() bool     { return e.attr&2 != 0 }

func TestEngineStartOrdersByExpiry(t *testing.T) {
	eng := NewEngine[int64, *fakeEntry]()
	a, b, c := &fakeEntry{id: 1}, &fakeEntry{id: 2}, &fakeEntry{id: 3}

	_, err := eng.Start(b, 700)
	require.NoError(t, err)
	_, err = eng.Start(a, 300)
	require.NoError(t, err)
	_, err = eng.Start(c, 1100)
	require.NoError(t, err)

	assert.Equal(t, 3, eng.Len())
	due := eng.Due(700)
	require.Len(t, due, 2)
	assert.Equal(t, a, due[0])
	assert.Equal(t, b, due[1])
	assert.Equal(t, 1, eng.Len())
}

func TestEngineStartBusy(t *testing.T) {
	eng := NewEngine[int64, *fakeEntry]()
	e := &fakeEntry{}
	_, err := eng.Start(e, 100)
	require.NoError(t, err)
	_, err = eng.Start(e, 200)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestEngineStopIdempotent(t *testing.T) {
	eng := NewEngine[int64, *fakeEntry]()
	e := &fakeEntry{}
	eng.Stop(e) // no-op, never started
	_, err := eng.Start(e, 100)
	require.NoError(t, err)
	eng.Stop(e)
	eng.Stop(e)
	assert.Equal(t, 0, eng.Len())
	assert.False(t, eng.Running(e))
}

func TestEngineRestart(t *testing.T) {
	eng := NewEngine[int64, *fakeEntry]()
	e := &fakeEntry{}
	_, err := eng.Start(e, 100)
	require.NoError(t, err)
	_, err = eng.Restart(e, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), e.Expire())
	assert.Equal(t, 1, eng.Len())
}

func TestEngineBecameLeftmost(t *testing.T) {
	eng := NewEngine[int64, *fakeEntry]()
	a, b := &fakeEntry{}, &fakeEntry{}
	became, err := eng.Start(a, 500)
	require.NoError(t, err)
	assert.True(t, became, "first timer is always the new leftmost")

	became, err = eng.Start(b, 900)
	require.NoError(t, err)
	assert.False(t, became, "later, larger deadline does not become leftmost")
}

func TestEngineFirstRemainingClampsToCeiling(t *testing.T) {
	eng := NewEngine[int64, *fakeEntry]()
	assert.Equal(t, int64(60), eng.FirstRemaining(0, 60))

	e := &fakeEntry{}
	_, err := eng.Start(e, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(60), eng.FirstRemaining(0, 60))
	assert.Equal(t, int64(500), eng.FirstRemaining(500, 600))
	assert.Equal(t, int64(0), eng.FirstRemaining(1500, 600))
}

func TestEngineDueOrdersManyEntries(t *testing.T) {
	eng := NewEngine[int64, *fakeEntry]()
	deadlines := []int64{50, 10, 40, 20, 30}
	entries := make([]*fakeEntry, len(deadlines))
	for i, d := range deadlines {
		entries[i] = &fakeEntry{id: i}
		_, err := eng.Start(entries[i], d)
		require.NoError(t, err)
	}
	due := eng.Due(100)
	require.Len(t, due, 5)
	for i := 1; i < len(due); i++ {
		assert.LessOrEqual(t, due[i-1].Expire(), due[i].Expire())
	}
}
