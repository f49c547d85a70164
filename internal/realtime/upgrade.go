package realtime

import (
	"net/http"
)

// ServeHTTP upgrades the request to a WebSocket and admits it. There is no
// authentication at this layer; scope ids are declared by the client.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !m.Accepting() {
		http.Error(w, "realtime hub unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	client := NewClient(conn, m.cfg)
	id := m.Admit(client)
	if id == 0 {
		return
	}

	go client.WritePump()
	go client.ReadPump(m, id)
}
