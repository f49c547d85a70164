package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fakeTransport) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func TestSweep_ReapsUnresponsiveConnectionAfterTwoCycles(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, WithClock(clock.Now))
	_, ft := connect(t, m)
	interval := m.Config().HeartbeatInterval

	clock.Advance(interval)
	assert.Equal(t, 0, m.sweep())
	assert.Equal(t, 1, ft.pingCount())
	assert.Equal(t, 1, m.ConnectionCount())

	clock.Advance(interval)
	assert.Equal(t, 1, m.sweep())
	assert.Equal(t, 0, m.ConnectionCount())
	assert.True(t, ft.wasTerminated())
}

func TestSweep_PongKeepsConnectionAlive(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, WithClock(clock.Now))
	id, ft := connect(t, m)
	interval := m.Config().HeartbeatInterval

	for i := 0; i < 5; i++ {
		clock.Advance(interval)
		assert.Equal(t, 0, m.sweep())
		m.HandlePong(id)
	}

	assert.Equal(t, 1, m.ConnectionCount())
	assert.Equal(t, 5, ft.pingCount())

	info, _ := m.Connection(id)
	assert.True(t, info.IsAlive)
	assert.Equal(t, clock.Now(), info.LastPingAt)
}

func TestSweep_AnyInboundMessageCountsAsLiveness(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, WithClock(clock.Now))
	id, _ := connect(t, m)
	interval := m.Config().HeartbeatInterval

	clock.Advance(interval)
	m.sweep()
	m.HandleMessage(id, []byte(`{"type":"something-unknown"}`))

	clock.Advance(interval)
	assert.Equal(t, 0, m.sweep())
	assert.Equal(t, 1, m.ConnectionCount())
}

func TestSweep_StaleThreshold(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, WithClock(clock.Now))
	_, ft := connect(t, m)

	clock.Advance(m.Config().StaleThreshold + time.Second)
	assert.Equal(t, 1, m.sweep())
	assert.Equal(t, 0, ft.pingCount())
	assert.Equal(t, 0, m.ConnectionCount())
}

func TestSweep_PingFailureEvicts(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, WithClock(clock.Now))
	_, broken := connect(t, m)
	_, healthy := connect(t, m)
	broken.mu.Lock()
	broken.pingErr = errors.New("write: broken pipe")
	broken.mu.Unlock()

	clock.Advance(m.Config().HeartbeatInterval)
	assert.Equal(t, 1, m.sweep())
	assert.Equal(t, 1, m.ConnectionCount())
	assert.True(t, broken.wasTerminated())
	assert.Equal(t, 1, healthy.pingCount())
}

func TestSweep_ClosedTransportNotPinged(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, WithClock(clock.Now))
	_, ft := connect(t, m)
	ft.mu.Lock()
	ft.open = false
	ft.mu.Unlock()

	clock.Advance(m.Config().HeartbeatInterval)
	m.sweep()
	assert.Equal(t, 0, ft.pingCount())

	clock.Advance(m.Config().HeartbeatInterval)
	assert.Equal(t, 1, m.sweep())
	assert.Equal(t, 0, m.ConnectionCount())
}

func TestHeartbeat_RunsOnInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	m := New(cfg, zerolog.Nop())
	require.NoError(t, m.Setup(context.Background()))
	defer m.Shutdown()

	_, ft := connect(t, m)

	assert.Eventually(t, func() bool {
		return m.ConnectionCount() == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, ft.pingCount(), 1)
}

func TestHeartbeat_StopsWithContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	m := New(cfg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Setup(ctx))
	cancel()
	<-m.stopped

	_, ft := connect(t, m)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, m.ConnectionCount())
	assert.Equal(t, 0, ft.pingCount())
	m.Shutdown()
}
