package realtime

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Path is the HTTP path the owner mounts the upgrade handler on.
	Path string

	// HeartbeatInterval is the period of the liveness sweep.
	HeartbeatInterval time.Duration

	// StaleThreshold evicts a connection whose last liveness signal is older.
	StaleThreshold time.Duration

	// SendBufferSize bounds the frames queued per connection; a full buffer is a send failure.
	SendBufferSize int

	// MaxMessageSize is the read limit for inbound frames.
	MaxMessageSize int64

	// WriteWait bounds a single write to the peer.
	WriteWait time.Duration

	// NotifyRejections replies with an error frame to ignored subscribe and
	// driver_location_update frames instead of staying silent.
	NotifyRejections bool
}

func DefaultConfig() Config {
	return Config{
		Path:              "/ws",
		HeartbeatInterval: 30 * time.Second,
		StaleThreshold:    60 * time.Second,
		SendBufferSize:    256,
		MaxMessageSize:    64 * 1024,
		WriteWait:         10 * time.Second,
	}
}

func LoadConfig() Config {
	def := DefaultConfig()
	return Config{
		Path:              getEnv("WS_PATH", def.Path),
		HeartbeatInterval: getDurationEnv("WS_HEARTBEAT_INTERVAL", def.HeartbeatInterval),
		StaleThreshold:    getDurationEnv("WS_STALE_THRESHOLD", def.StaleThreshold),
		SendBufferSize:    getIntEnv("WS_SEND_BUFFER", def.SendBufferSize),
		MaxMessageSize:    int64(getIntEnv("WS_MAX_MESSAGE_BYTES", int(def.MaxMessageSize))),
		WriteWait:         getDurationEnv("WS_WRITE_WAIT", def.WriteWait),
		NotifyRejections:  getEnv("WS_NOTIFY_REJECTIONS", "false") == "true",
	}
}

// withDefaults fills zero values so a partially built Config is usable.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Path == "" {
		c.Path = def.Path
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = def.StaleThreshold
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = def.SendBufferSize
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.WriteWait <= 0 {
		c.WriteWait = def.WriteWait
	}
	return c
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
