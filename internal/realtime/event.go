package realtime

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrInvalidEvent     = errors.New("invalid event")
)

// Event is the envelope publishers use to request a broadcast, either over
// the publish API or the NATS bridge. Kind is one of the outbound frame
// types, or EventBranch / EventCustomer.
type Event struct {
	Kind            string    `json:"kind"`
	Order           Payload   `json:"order,omitempty"`
	Alert           Payload   `json:"alert,omitempty"`
	DeliveryOrder   Payload   `json:"deliveryOrder,omitempty"`
	Data            Payload   `json:"data,omitempty"`
	AlertID         string    `json:"alertId,omitempty"`
	BranchID        string    `json:"branchId,omitempty"`
	CustomerID      string    `json:"customerId,omitempty"`
	DriverID        string    `json:"driverId,omitempty"`
	DeliveryOrderID string    `json:"deliveryOrderId,omitempty"`
	Location        *Location `json:"location,omitempty"`
}

// EventKinds lists every kind Dispatch accepts.
var EventKinds = []string{
	FrameOrderUpdated,
	FrameNewOrder,
	FrameOrderReady,
	FrameStockAlert,
	FrameAlertResolved,
	FrameDeliveryUpdated,
	FrameDriverLocation,
	FrameNewDeliveryOrder,
	EventBranch,
	EventCustomer,
}

// Dispatch routes ev to the broadcast for its kind and returns the number
// of recipients.
func (m *Manager) Dispatch(ev Event) (int, error) {
	if err := ev.Validate(); err != nil {
		return 0, err
	}

	switch ev.Kind {
	case FrameOrderUpdated:
		return m.BroadcastOrderUpdate(ev.Order), nil
	case FrameNewOrder:
		return m.BroadcastNewOrder(ev.Order), nil
	case FrameOrderReady:
		return m.BroadcastOrderReady(ev.Order), nil
	case FrameStockAlert:
		return m.BroadcastStockAlert(ev.Alert), nil
	case FrameAlertResolved:
		return m.BroadcastAlertResolved(ev.AlertID, ev.BranchID), nil
	case FrameDeliveryUpdated:
		return m.BroadcastDeliveryUpdate(ev.DeliveryOrder), nil
	case FrameDriverLocation:
		return m.BroadcastDriverLocation(ev.DriverID, *ev.Location, ev.DeliveryOrderID), nil
	case FrameNewDeliveryOrder:
		return m.BroadcastNewDeliveryOrder(ev.DeliveryOrder, ev.BranchID), nil
	case EventBranch:
		return m.BroadcastToBranch(ev.BranchID, ev.Data), nil
	case EventCustomer:
		return m.BroadcastToCustomer(ev.CustomerID, ev.Data), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEventKind, ev.Kind)
}

// Validate checks that the fields the kind routes on are present.
func (ev Event) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidEvent, ev.Kind, field)
	}

	switch ev.Kind {
	case FrameOrderUpdated, FrameNewOrder, FrameOrderReady:
		if ev.Order == nil {
			return missing("order")
		}
	case FrameStockAlert:
		if ev.Alert == nil {
			return missing("alert")
		}
	case FrameAlertResolved:
		if ev.AlertID == "" {
			return missing("alertId")
		}
	case FrameDeliveryUpdated, FrameNewDeliveryOrder:
		if ev.DeliveryOrder == nil {
			return missing("deliveryOrder")
		}
	case FrameDriverLocation:
		if ev.DriverID == "" {
			return missing("driverId")
		}
		if ev.Location == nil {
			return missing("location")
		}
	case EventBranch:
		if ev.BranchID == "" {
			return missing("branchId")
		}
	case EventCustomer:
		if ev.CustomerID == "" {
			return missing("customerId")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventKind, ev.Kind)
	}
	return nil
}
