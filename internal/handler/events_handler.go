package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/orbita-academy/orbita-backend/internal/config"
	"github.com/orbita-academy/orbita-backend/internal/middleware"
	ws "github.com/orbita-academy/orbita-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// EventsHandler streams access-control notifications (logins, permission
// changes, deactivations) to admin dashboards over WebSocket.
type EventsHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *EventsHandler {
	return &EventsHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "events_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// EventsStream godoc
// WS /ws/v1/admin/events
// Subscribes to the access-events Pub/Sub channel and forwards each payload
// to the connected admin client.
func (h *EventsHandler) EventsStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("username", claims.Username).
		Logger()

	wsLog.Info().Msg("Admin connected to events stream")

	sub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.AccessEventsChannel())
	defer sub.Close()
	ch := sub.Channel()

	// Reader goroutine: forwards client actions and detects disconnect.
	// Writes stay on the request goroutine; gorilla conns allow one writer.
	actions := make(chan ws.Action, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				return
			}
			select {
			case actions <- msg.Action:
			default:
			}
		}
	}()

	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Admin disconnected from events stream")
			return

		case <-c.Request.Context().Done():
			wsLog.Debug().Msg("Events stream context closed")
			return

		case action := <-actions:
			switch action {
			case ws.ActionPing:
				if err := ws.WriteTyped(conn, ws.PongFrame{Event: ws.EventPong}); err != nil {
					return
				}
			default:
				if err := ws.WriteError(conn, "unknown action"); err != nil {
					return
				}
			}

		case msg, ok := <-ch:
			if !ok {
				return
			}
			frame := ws.NotificationFrame{
				Event:   ws.EventNotification,
				Payload: msg.Payload,
			}
			if err := ws.WriteTyped(conn, frame); err != nil {
				wsLog.Warn().Err(err).Msg("Events stream write failed")
				return
			}
		}
	}
}
