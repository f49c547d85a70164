package response

import "orderhub/internal/realtime"

type APIError struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type PublishResponse struct {
	Kind      string `json:"kind"`
	Delivered int    `json:"delivered"`
}

type ConnectionsResponse struct {
	Total       int                       `json:"total"`
	Connections []realtime.ConnectionInfo `json:"connections"`
}
