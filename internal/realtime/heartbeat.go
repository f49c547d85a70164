package realtime

import (
	"context"
	"time"
)

func (m *Manager) runHeartbeat(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep reaps connections that missed the previous ping or went silent for
// longer than the stale threshold, and pings the rest. A connection is
// accused on one tick and reaped on the next unless it answers in between.
func (m *Manager) sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	reaped := 0
	for _, id := range m.order {
		c, ok := m.conns[id]
		if !ok {
			continue
		}

		if !c.isAlive || now.Sub(c.lastPingAt) > m.cfg.StaleThreshold {
			m.logger.Info().
				Uint64("connId", id).
				Time("lastPingAt", c.lastPingAt).
				Msg("Reaping stale connection")
			m.removeLocked(id, "stale")
			reaped++
			continue
		}

		c.isAlive = false
		if !c.transport.IsOpen() {
			continue
		}
		if err := c.transport.Ping(); err != nil {
			m.logger.Warn().Err(err).Uint64("connId", id).Msg("Heartbeat ping failed")
			m.removeLocked(id, "ping failed")
			reaped++
		}
	}

	if reaped > 0 {
		m.logger.Info().Int("reaped", reaped).Int("active", len(m.conns)).Msg("Heartbeat sweep completed")
	}
	return reaped
}
