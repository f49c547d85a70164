package pkg

import (
	"orderhub/internal/realtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriverLocationKey(t *testing.T) {
	assert.Equal(t, "driver:DR1:location", DriverLocationKey("DR1"))
}

func TestDriverLocationStore_RedisDisabled(t *testing.T) {
	store := NewDriverLocationStore(0)
	assert.Equal(t, DefaultDriverLocationTTL, store.ttl)

	err := store.RecordLocation("DR1", realtime.Location{Lat: 1, Lng: 2}, "D1")
	assert.ErrorIs(t, err, ErrRedisDisabled)

	_, err = store.LastLocation("DR1")
	assert.ErrorIs(t, err, ErrRedisDisabled)
	assert.False(t, IsRedisNil(err))
}
