// Package server exposes a REPL session over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"replctl/internal/session"
	"replctl/internal/system"
	appver "replctl/internal/version"
	webembed "replctl/internal/webui/embed"
)

type Server struct {
	Addr    string
	Session *session.Session
	// Terminal is the command bridged by /api/term/ws. Empty means `swift repl`.
	Terminal []string
	// Dir is the working directory of terminal processes.
	Dir string
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	system.Logger.Info("server listening", "addr", s.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	s.mountAPI(r)
	mountEmbeddedUI(r)
	return r
}

// OpenBrowser tries to open a URL in the system browser.
func OpenBrowser(url string) error {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return runCmd(cmd, args...)
}

func (s *Server) mountAPI(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", gin.WrapF(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	api.GET("/version", gin.WrapF(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": appver.AppVersion})
	}))

	// Session
	api.POST("/run", gin.WrapF(s.runHandler))
	api.POST("/profile", gin.WrapF(s.profileHandler))
	api.GET("/vars", gin.WrapF(s.varsHandler))
	api.GET("/vars/:name", func(c *gin.Context) { s.varGetHandler(c.Writer, c.Request, c.Param("name")) })
	api.PUT("/vars/:name", func(c *gin.Context) { s.varPutHandler(c.Writer, c.Request, c.Param("name")) })
	api.GET("/reload", gin.WrapF(s.reloadHandler))
	api.POST("/reload", gin.WrapF(s.reloadHandler))
	api.DELETE("/reload", gin.WrapF(s.reloadHandler))

	// Stateless helpers
	api.POST("/clean", gin.WrapF(cleanHandler))
	api.POST("/blocks", gin.WrapF(blocksHandler))

	// WebSocket
	api.GET("/ws", gin.WrapF(s.runWSHandler))
	api.GET("/term/ws", gin.WrapF(s.terminalWSHandler))
}

// mountEmbeddedUI serves the embedded page at all non-/api GET routes.
func mountEmbeddedUI(r *gin.Engine) {
	dist, err := fs.Sub(webembed.DistFS, "dist")
	if err != nil {
		r.NoRoute(func(c *gin.Context) { c.Status(http.StatusNotFound) })
		return
	}
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
			writeJSON(c.Writer, http.StatusNotFound, errJSON(errors.New("not found")))
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		p := strings.TrimPrefix(c.Request.URL.Path, "/")
		if p == "" {
			p = "index.html"
		}
		b, err := fs.ReadFile(dist, p)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		ct := mime.TypeByExtension(filepath.Ext(p))
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Data(http.StatusOK, ct, b)
	})
}
