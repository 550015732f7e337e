package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"replctl/internal/system"
	"replctl/internal/webui/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "address to bind (host:port), default from config")
	serveCmd.Flags().BoolP("open", "o", false, "open the browser after start")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a REPL session over HTTP and WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = conf.Server.Addr
		}
		open, _ := cmd.Flags().GetBool("open")

		// Handle Ctrl+C
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		s, err := startSession(ctx, nil)
		if err != nil {
			return err
		}
		srv := &server.Server{Addr: addr, Session: s, Terminal: conf.Swift.Command, Dir: conf.Swift.PackageDir}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Start(gctx) })
		g.Go(func() error {
			<-gctx.Done()
			system.Logger.Info("closing repl session")
			return s.Close()
		})

		url := fmt.Sprintf("http://%s/", addr)
		system.Logger.Info("serving", "url", url, "reload_files", len(s.ReloadFiles()))
		if open {
			if err := server.OpenBrowser(url); err != nil {
				system.Logger.Warn("failed to open browser", "err", err)
			}
		}
		return g.Wait()
	},
}
