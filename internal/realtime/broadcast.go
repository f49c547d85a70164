package realtime

// broadcast serializes msg once and sends it to every matching connection
// in admission order. A failed send evicts that connection only.
func (m *Manager) broadcast(msg any, kind string, match func(*Connection) bool) int {
	data := m.encode(msg)
	if data == nil {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneClosedLocked()

	delivered := 0
	for _, id := range m.order {
		c, ok := m.conns[id]
		if !ok || !match(c) {
			continue
		}
		if err := c.transport.Send(data); err != nil {
			m.logger.Warn().Err(err).Uint64("connId", id).Str("type", kind).Msg("Failed to deliver broadcast")
			m.removeLocked(id, "send failed")
			continue
		}
		delivered++
	}

	m.logger.Debug().Str("type", kind).Int("delivered", delivered).Msg("Broadcasted message")
	return delivered
}

// BroadcastOrderUpdate reaches kitchen, display and pos screens, and order
// trackers watching this order.
func (m *Manager) BroadcastOrderUpdate(order Payload) int {
	orderID := order.ID()
	msg := outboundMessage{Type: FrameOrderUpdated, Order: order, Timestamp: m.now()}
	return m.broadcast(msg, FrameOrderUpdated, func(c *Connection) bool {
		if c.is(RoleKitchen, RoleDisplay, RolePOS) {
			return true
		}
		return c.role == RoleOrderTracking && sameScope(c.orderID, orderID)
	})
}

func (m *Manager) BroadcastNewOrder(order Payload) int {
	msg := outboundMessage{Type: FrameNewOrder, Order: order, Timestamp: m.now()}
	return m.broadcast(msg, FrameNewOrder, func(c *Connection) bool {
		return c.is(RoleKitchen, RoleDisplay, RolePOS)
	})
}

func (m *Manager) BroadcastOrderReady(order Payload) int {
	orderID := order.ID()
	msg := outboundMessage{Type: FrameOrderReady, Order: order, Timestamp: m.now()}
	return m.broadcast(msg, FrameOrderReady, func(c *Connection) bool {
		if c.role == RoleDisplay {
			return true
		}
		return c.role == RoleOrderTracking && sameScope(c.orderID, orderID)
	})
}

func (m *Manager) BroadcastStockAlert(alert Payload) int {
	msg := outboundMessage{Type: FrameStockAlert, Alert: alert, Timestamp: m.now()}
	return m.broadcast(msg, FrameStockAlert, func(c *Connection) bool {
		return c.is(RoleInventory, RoleDisplay)
	})
}

func (m *Manager) BroadcastAlertResolved(alertID, branchID string) int {
	msg := outboundMessage{Type: FrameAlertResolved, AlertID: alertID, BranchID: branchID, Timestamp: m.now()}
	return m.broadcast(msg, FrameAlertResolved, func(c *Connection) bool {
		return c.is(RoleInventory, RoleDisplay)
	})
}

// BroadcastDeliveryUpdate reaches the assigned driver and trackers of the
// delivery order.
func (m *Manager) BroadcastDeliveryUpdate(deliveryOrder Payload) int {
	deliveryOrderID := deliveryOrder.ID()
	driverID := deliveryOrder.String("driverId")
	msg := outboundMessage{Type: FrameDeliveryUpdated, DeliveryOrder: deliveryOrder, Timestamp: m.now()}
	return m.broadcast(msg, FrameDeliveryUpdated, func(c *Connection) bool {
		switch c.role {
		case RoleDeliveryDriver:
			return sameScope(c.driverID, driverID)
		case RoleDeliveryTracking:
			return sameScope(c.deliveryOrderID, deliveryOrderID)
		}
		return false
	})
}

// BroadcastDriverLocation reaches delivery trackers watching either the
// delivery order or the driver, then records the position when a
// LocationRecorder is configured.
func (m *Manager) BroadcastDriverLocation(driverID string, loc Location, deliveryOrderID string) int {
	msg := outboundMessage{
		Type:            FrameDriverLocation,
		DriverID:        driverID,
		Location:        &loc,
		DeliveryOrderID: deliveryOrderID,
		Timestamp:       m.now(),
	}
	delivered := m.broadcast(msg, FrameDriverLocation, func(c *Connection) bool {
		if c.role != RoleDeliveryTracking {
			return false
		}
		return sameScope(c.deliveryOrderID, deliveryOrderID) || sameScope(c.driverID, driverID)
	})

	if m.locations != nil && driverID != "" {
		if err := m.locations.RecordLocation(driverID, loc, deliveryOrderID); err != nil {
			m.logger.Warn().Err(err).Str("driverId", driverID).Msg("Failed to record driver location")
		}
	}
	return delivered
}

// BroadcastNewDeliveryOrder reaches drivers. With a branch id, only drivers
// of that branch and drivers that declared no branch receive it.
func (m *Manager) BroadcastNewDeliveryOrder(deliveryOrder Payload, branchID string) int {
	msg := outboundMessage{Type: FrameNewDeliveryOrder, DeliveryOrder: deliveryOrder, Timestamp: m.now()}
	return m.broadcast(msg, FrameNewDeliveryOrder, func(c *Connection) bool {
		if c.role != RoleDeliveryDriver {
			return false
		}
		return branchID == "" || c.branchID == "" || c.branchID == branchID
	})
}

// BroadcastToBranch sends data to every connection of a branch, or to all
// connections when branchID is AllBranches.
func (m *Manager) BroadcastToBranch(branchID string, data Payload) int {
	msg := mergeTimestamp(data, m.now())
	return m.broadcast(msg, EventBranch, func(c *Connection) bool {
		return branchID == AllBranches || sameScope(c.branchID, branchID)
	})
}

func (m *Manager) BroadcastToCustomer(customerID string, data Payload) int {
	msg := mergeTimestamp(data, m.now())
	return m.broadcast(msg, EventCustomer, func(c *Connection) bool {
		return c.role == RoleCustomer && sameScope(c.customerID, customerID)
	})
}
