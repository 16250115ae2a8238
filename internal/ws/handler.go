package ws

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// handleEventStream upgrades the connection to WebSocket and streams ward
// events until the client disconnects.
//
//	@Summary		Event stream
//	@Description	Upgrades to WebSocket and streams reading, anomaly, alert, and model events as typed JSON envelopes.
//	@Tags			ws
//	@Success		101 {string} string "Switching Protocols"
//	@Router			/ws/events [get]
func (m *Module) handleEventStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin checks are left to the deployment's reverse proxy.
		InsecureSkipVerify: true,
	})
	if err != nil {
		m.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		id:     uuid.NewString(),
		send:   make(chan Message, 256),
		logger: m.logger,
	}

	m.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	// Client disconnected -- stop write pump and unregister.
	m.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}
