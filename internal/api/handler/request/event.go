package request

import "orderhub/internal/realtime"

type LocationDTO struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// PublishEventDTO is the body of POST /api/v1/events/:kind. Which fields
// are required depends on the kind and is checked by the hub.
type PublishEventDTO struct {
	Order           map[string]any `json:"order"`
	Alert           map[string]any `json:"alert"`
	DeliveryOrder   map[string]any `json:"deliveryOrder"`
	Data            map[string]any `json:"data"`
	AlertID         string         `json:"alertId" validate:"max=128"`
	BranchID        string         `json:"branchId" validate:"max=128"`
	CustomerID      string         `json:"customerId" validate:"max=128"`
	DriverID        string         `json:"driverId" validate:"max=128"`
	DeliveryOrderID string         `json:"deliveryOrderId" validate:"max=128"`
	Location        *LocationDTO   `json:"location"`
}

func (dto PublishEventDTO) ToEvent(kind string) realtime.Event {
	ev := realtime.Event{
		Kind:            kind,
		Order:           dto.Order,
		Alert:           dto.Alert,
		DeliveryOrder:   dto.DeliveryOrder,
		Data:            dto.Data,
		AlertID:         dto.AlertID,
		BranchID:        dto.BranchID,
		CustomerID:      dto.CustomerID,
		DriverID:        dto.DriverID,
		DeliveryOrderID: dto.DeliveryOrderID,
	}
	if dto.Location != nil {
		ev.Location = &realtime.Location{Lat: dto.Location.Lat, Lng: dto.Location.Lng}
	}
	return ev
}
