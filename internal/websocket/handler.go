package websocket

import (
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the request and streams note change events to it
// until either side disconnects.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// the feed outlives the server's per-request read and write timeouts
		rc := http.NewResponseController(w)
		rc.SetReadDeadline(time.Time{})
		rc.SetWriteDeadline(time.Time{})

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("accept websocket", "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("client connected", "clients", hub.ClientCount()+1)
		NewClient(hub, conn).Run(r.Context())
		logger.Debug("client disconnected", "clients", hub.ClientCount())
	}
}
