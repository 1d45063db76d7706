package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

const watchWriteTimeout = 10 * time.Second

// handleWatch upgrades to a websocket and streams append events for the
// session until the client disconnects. Delivery is best-effort: a slow
// client loses events rather than backpressuring the append path.
func (g *Gateway) handleWatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Warn("watch accept failed", "session", id, "error", err)
			return
		}

		// The server-wide write deadline would kill long-lived streams.
		rc := http.NewResponseController(w)
		_ = rc.SetWriteDeadline(time.Time{})
		_ = rc.SetReadDeadline(time.Time{})

		events, cancel := g.svc.Subscribe(id)
		defer cancel()

		ctx := r.Context()
		g.logger.Info("watch stream opened", "session", id)

		// Reads are only used to detect client close.
		go func() {
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			case evt, ok := <-events:
				if !ok {
					_ = conn.Close(websocket.StatusNormalClosure, "subscription closed")
					return
				}
				if err := g.writeEvent(ctx, conn, evt); err != nil {
					g.logger.Debug("watch stream closed", "session", id, "error", err)
					return
				}
			}
		}
	}
}

func (g *Gateway) writeEvent(ctx context.Context, conn *websocket.Conn, evt any) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, watchWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
