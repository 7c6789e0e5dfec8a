package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage is the base frame exchanged over a job's websocket.
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage pushes a render progress update to subscribers.
type WSProgressMessage struct {
	Type     string    `json:"type"`
	RenderID string    `json:"renderId"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
}

// WSCompleteMessage announces a finished render with its output location.
type WSCompleteMessage struct {
	Type      string `json:"type"`
	RenderID  string `json:"renderId"`
	OutputURL string `json:"outputUrl"`
}

// WSErrorMessage announces a failed render.
type WSErrorMessage struct {
	Type     string  `json:"type"`
	RenderID string  `json:"renderId"`
	Error    WSError `json:"error"`
}

// WSError carries the failure code and message.
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
