package websocket

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventNotification Event = "notification"
	EventError        Event = "error"
	EventPong         Event = "pong"
)

// NotificationFrame wraps a raw notification payload from the events channel.
// The payload is forwarded verbatim; the hub never re-serializes it.
type NotificationFrame struct {
	Event   Event  `json:"event"`
	Payload string `json:"payload"`
}

type ErrorFrame struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongFrame struct {
	Event Event `json:"event"`
}

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}
