package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Payload is an opaque caller-supplied document (order, alert, delivery
// order). The hub relays it verbatim and only reads routing keys from it.
type Payload map[string]any

// ID returns the document id, falling back to the document-store "_id" key.
func (p Payload) ID() string {
	if id := p.String("id"); id != "" {
		return id
	}
	return p.String("_id")
}

// String returns the value under key as a string. Numbers use their decimal
// form so that 7 and "7" compare equal.
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	return stringify(p[key])
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ScopeID is a client-declared identifier. It accepts JSON strings and
// numbers so clients may send either.
type ScopeID string

func (s *ScopeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = ScopeID(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("scope id must be a string or number: %w", err)
	}
	*s = ScopeID(num.String())
	return nil
}

// inboundMessage is the union of every client->hub frame.
type inboundMessage struct {
	Type            string    `json:"type"`
	ClientType      Role      `json:"clientType"`
	OrderID         ScopeID   `json:"orderId"`
	BranchID        ScopeID   `json:"branchId"`
	DriverID        ScopeID   `json:"driverId"`
	DeliveryOrderID ScopeID   `json:"deliveryOrderId"`
	CustomerID      ScopeID   `json:"customerId"`
	Location        *Location `json:"location"`
}

// outboundMessage is the envelope of every typed hub->client frame.
type outboundMessage struct {
	Type            string    `json:"type"`
	ClientType      Role      `json:"clientType,omitempty"`
	Code            string    `json:"code,omitempty"`
	Order           Payload   `json:"order,omitempty"`
	Alert           Payload   `json:"alert,omitempty"`
	AlertID         string    `json:"alertId,omitempty"`
	BranchID        string    `json:"branchId,omitempty"`
	DeliveryOrder   Payload   `json:"deliveryOrder,omitempty"`
	DriverID        string    `json:"driverId,omitempty"`
	Location        *Location `json:"location,omitempty"`
	DeliveryOrderID string    `json:"deliveryOrderId,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// mergeTimestamp copies caller data and stamps it; the hub timestamp wins.
func mergeTimestamp(data Payload, ts time.Time) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["timestamp"] = ts
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
