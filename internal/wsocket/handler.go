package wsocket

import (
	"context"
	"log"
	"net/http"
	"time"

	"casahub_go_backend/internal/broker"
	"casahub_go_backend/internal/models"

	"github.com/gorilla/websocket"
)

// Handler pushes per-user wallet events (debits from tool use, credits from
// purchases) to connected clients so balance displays stay current without
// polling.
type Handler struct {
	upgrader     websocket.Upgrader
	events       *broker.Broker
	pingInterval time.Duration
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

func NewHandler(upgrader websocket.Upgrader, events *broker.Broker, pingInterval time.Duration) *Handler {
	return &Handler{
		upgrader:     upgrader,
		events:       events,
		pingInterval: pingInterval,
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request, user interface{}) {
	userModel, ok := user.(*models.User)
	if !ok {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := userModel.ID.String()
	walletChan := h.events.Subscribe("wallet_update_" + userID)
	defer h.events.Unsubscribe("wallet_update_"+userID, walletChan)

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, open := <-walletChan:
				if !open {
					return
				}
				if err := conn.WriteJSON(Message{Type: "wallet_update", Payload: msg}); err != nil {
					log.Printf("Error writing wallet update: %v", err)
					cancel()
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Read loop only drains control frames and detects the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			return
		}
	}
}
