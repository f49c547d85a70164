package pkg

import (
	"orderhub/internal/realtime"
	"time"
)

const DefaultDriverLocationTTL = 10 * time.Minute

// DriverLocation is the last reported position of a driver.
type DriverLocation struct {
	DriverID        string            `json:"driverId"`
	Location        realtime.Location `json:"location"`
	DeliveryOrderID string            `json:"deliveryOrderId,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// DriverLocationStore keeps driver positions in Redis so clients that missed
// live driver_location frames can fetch the latest one.
type DriverLocationStore struct {
	ttl time.Duration
	now func() time.Time
}

func NewDriverLocationStore(ttl time.Duration) *DriverLocationStore {
	if ttl <= 0 {
		ttl = DefaultDriverLocationTTL
	}
	return &DriverLocationStore{ttl: ttl, now: time.Now}
}

func DriverLocationKey(driverID string) string {
	return "driver:" + driverID + ":location"
}

func (slf *DriverLocationStore) RecordLocation(driverID string, loc realtime.Location, deliveryOrderID string) error {
	return RedisSet(DriverLocationKey(driverID), DriverLocation{
		DriverID:        driverID,
		Location:        loc,
		DeliveryOrderID: deliveryOrderID,
		UpdatedAt:       slf.now().UTC(),
	}, slf.ttl)
}

// LastLocation returns redis.Nil (see IsRedisNil) when nothing is known.
func (slf *DriverLocationStore) LastLocation(driverID string) (DriverLocation, error) {
	var out DriverLocation
	err := RedisGet(DriverLocationKey(driverID), &out)
	return out, err
}

func (slf *DriverLocationStore) Forget(driverID string) error {
	return RedisDelete(DriverLocationKey(driverID))
}
