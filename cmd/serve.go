package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sage/internal/dashboard"
	"github.com/ziadkadry99/sage/internal/server"
	"github.com/ziadkadry99/sage/internal/state"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP render service",
	Long:  `Starts the sage HTTP server with the render API, the merge endpoints, the status websocket and the dashboard page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		st, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		engine, gv := newEngine(cfg, st)
		defer gv.Close()

		local, workflow := newSources(cfg)

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowAll:       cfg.Server.AllowAll,
			RequestTimeout: requestTimeout(cfg.MergeTimeout()),
		}, st.database)

		dash := dashboard.New(dashboard.Options{
			Engine:       engine,
			Cache:        st.cache,
			History:      st.history,
			Sessions:     state.NewSessions(),
			Local:        local,
			Workflow:     workflow,
			MergeTimeout: cfg.MergeTimeout(),
		})
		dash.RegisterRoutes(srv.Router())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "sage server %s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Cache: %s", cfg.Cache.Backend)
		if st.database != nil {
			fmt.Fprintf(os.Stderr, " (%s)", cfg.Cache.Path)
		}
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "  Local model: %s %s\n", cfg.LocalModel.Provider, cfg.LocalModel.Model)
		if workflow != nil {
			fmt.Fprintf(os.Stderr, "  Workflow: %s\n", cfg.Workflow.URL)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// requestTimeout leaves an analysis a minute beyond the merge timeout to
// answer. An unbounded merge leaves requests unbounded too.
func requestTimeout(merge time.Duration) time.Duration {
	if merge <= 0 {
		return server.NoTimeout
	}
	return merge + time.Minute
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8090, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
