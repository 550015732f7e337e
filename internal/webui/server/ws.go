package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"replctl/internal/system"
)

// wsUpgrader upgrades HTTP connections to WebSocket.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Allow all origins; the server binds to localhost by default.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// runWSHandler runs every text frame as a snippet and answers with the
// JSON run result. Frames are handled in order.
func (s *Server) runWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("upgrade failed: %v", err), http.StatusBadRequest)
		return
	}
	defer conn.Close()
	system.Logger.Debug("ws client connected", "remote", r.RemoteAddr)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var resp runResponse
		if strings.TrimSpace(string(data)) == "" {
			resp.Error = "code is required"
		} else {
			resp, _ = s.run(r.Context(), runRequest{Code: string(data)})
		}
		if err := conn.WriteJSON(resp); err != nil {
			system.Logger.Debug("ws write failed", "err", err)
			return
		}
	}
}
