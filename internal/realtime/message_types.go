package realtime

// Role is the declared kind of client on a connection.
type Role string

const (
	RoleKitchen          Role = "kitchen"
	RoleDisplay          Role = "display"
	RoleOrderTracking    Role = "order-tracking"
	RolePOS              Role = "pos"
	RoleInventory        Role = "inventory"
	RoleDeliveryDriver   Role = "delivery-driver"
	RoleDeliveryTracking Role = "delivery-tracking"
	RoleCustomer         Role = "customer"
)

// DefaultRole is assigned at admission, before any subscribe frame.
const DefaultRole = RoleDisplay

// Roles lists every valid role in declaration order.
var Roles = []Role{
	RoleKitchen,
	RoleDisplay,
	RoleOrderTracking,
	RolePOS,
	RoleInventory,
	RoleDeliveryDriver,
	RoleDeliveryTracking,
	RoleCustomer,
}

// Inbound frame types
const (
	InboundSubscribe            = "subscribe"
	InboundPing                 = "ping"
	InboundDriverLocationUpdate = "driver_location_update"
)

// Outbound frame types. The event kinds double as publisher event kinds.
const (
	FrameWelcome          = "welcome"
	FrameSubscribed       = "subscribed"
	FramePong             = "pong"
	FrameError            = "error"
	FrameOrderUpdated     = "order_updated"
	FrameNewOrder         = "new_order"
	FrameOrderReady       = "order_ready"
	FrameStockAlert       = "stock_alert"
	FrameAlertResolved    = "alert_resolved"
	FrameDeliveryUpdated  = "delivery_updated"
	FrameDriverLocation   = "driver_location"
	FrameNewDeliveryOrder = "new_delivery_order"

	// EventBranch and EventCustomer carry caller-shaped frames.
	EventBranch   = "branch"
	EventCustomer = "customer"
)

// AllBranches is the wildcard target of BroadcastToBranch.
const AllBranches = "all"

// Rejection codes sent when Config.NotifyRejections is set.
const (
	CodeForbidden           = "forbidden"
	CodeInvalidSubscription = "invalid_subscription"
)
