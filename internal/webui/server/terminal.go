package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"

	"replctl/internal/system"
)

// terminalWSHandler starts a private REPL in a PTY and bridges it over
// WebSocket for interactive use. It does not share state with the session
// behind /api/run.
//
// Client protocol:
//   - Plain text frames are typed into the REPL.
//   - Control frames are JSON: {"type":"resize","cols":<int>,"rows":<int>}
//     or {"type":"input","data":"..."}.
//   - Server sends PTY output as text frames.
func (s *Server) terminalWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("upgrade failed: %v", err), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	argv := s.Terminal
	if len(argv) == 0 {
		argv = []string{"swift", "repl"}
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = s.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start repl: "+err.Error()))
		return
	}
	system.Logger.Info("terminal started", "cmd", argv, "pid", cmd.Process.Pid)
	defer func() {
		_ = ptmx.Close()
		_ = cmd.Wait()
		system.Logger.Info("terminal closed", "pid", cmd.Process.Pid)
	}()

	if cols, _ := strconv.Atoi(r.URL.Query().Get("cols")); cols > 0 {
		if rows, _ := strconv.Atoi(r.URL.Query().Get("rows")); rows > 0 {
			_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
		}
	}

	// PTY -> WS
	go func() {
		buf := make([]byte, 4096)
		for {
			n, readErr := ptmx.Read(buf)
			if n > 0 {
				_ = conn.WriteMessage(websocket.TextMessage, buf[:n])
			}
			if readErr != nil {
				if !errors.Is(readErr, io.EOF) {
					_ = conn.WriteMessage(websocket.TextMessage, []byte("\r\n[repl exited]\r\n"))
				}
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "repl exited"))
				_ = conn.Close()
				return
			}
		}
	}()

	// WS -> PTY
	type controlMsg struct {
		Type string `json:"type"`
		Cols int    `json:"cols"`
		Rows int    `json:"rows"`
		Data string `json:"data"`
	}
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		var cm controlMsg
		if json.Unmarshal(data, &cm) == nil && cm.Type != "" {
			switch {
			case cm.Type == "resize" && cm.Cols > 0 && cm.Rows > 0:
				_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(cm.Cols), Rows: uint16(cm.Rows)})
				continue
			case cm.Type == "input":
				_, _ = io.WriteString(ptmx, cm.Data)
				continue
			}
		}
		if len(data) > 0 {
			_, _ = ptmx.Write(data)
		}
	}
}
