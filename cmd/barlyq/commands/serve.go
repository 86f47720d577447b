package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/barlyqqyzmet/admin/internal/dashboard"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Listen
			}

			e, err := a.openEngine()
			if err != nil {
				return fmt.Errorf("open workspace: %w", err)
			}
			defer e.Close()

			srv, err := dashboard.New(e, dashboard.Config{
				PageSize:     a.cfg.PageSize,
				CookieSecure: a.cfg.CookieSecure,
				Logger:       a.log,
			})
			if err != nil {
				return fmt.Errorf("create dashboard: %w", err)
			}

			httpSrv := &http.Server{
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			a.log.Info("dashboard listening", zap.String("addr", ln.Addr().String()), zap.String("api", a.cfg.APIURL))
			fmt.Fprintf(cmd.OutOrStdout(), "  barlyq dashboard on http://%s\n", ln.Addr())
			return serveUntilDone(ctx, httpSrv, ln, a.log)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config)")
	return cmd
}

// serveUntilDone runs srv on ln until ctx is done. It returns once in-flight
// requests have drained or the shutdown timeout passed.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener, log *zap.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	<-drained
	return nil
}
