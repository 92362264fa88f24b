package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/trafficcams/internal/api"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program implements the kardianos/service interface
type program struct {
	app    *app
	server *http.Server
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(s service.Service) error {
	// Start must not block
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	router := api.SetupRouter(ctx, p.app.cfg, p.app.svc, p.app.metrics, p.app.logger)
	p.server = &http.Server{
		Addr:              p.app.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go p.run(ctx)
	return nil
}

func (p *program) run(ctx context.Context) {
	defer close(p.done)

	// A failed load leaves an empty gallery with an error status
	if err := p.app.svc.LoadCatalog(ctx); err != nil {
		log.Printf("starting with an empty gallery: %v", err)
	}
	p.app.svc.Start(ctx)

	log.Printf("Server starting on port %s", p.app.cfg.Port)
	if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("HTTP server error: %v", err)
	}
}

func (p *program) Stop(s service.Service) error {
	log.Println("Stopping server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	p.cancel()
	<-p.done
	p.app.close()
	return nil
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var serviceAction string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the camera gallery over HTTP",
		Long: `Starts the gallery web UI and JSON API, with Prometheus metrics on
/metrics. Can be installed as a system service.`,
		Example: `  trafficcams serve
  trafficcams serve --service install --config /etc/trafficcams.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcConfig := &service.Config{
				Name:        "trafficcams",
				DisplayName: "Traffic Camera Gallery",
				Description: "Serves a filterable gallery of traffic camera images",
				Arguments:   []string{"serve"},
			}
			if root.cfgFile != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", root.cfgFile)
			}

			// Service control actions need no database or network
			if serviceAction != "" {
				s, err := service.New(&program{}, svcConfig)
				if err != nil {
					return err
				}
				if err := service.Control(s, serviceAction); err != nil {
					return fmt.Errorf("failed to %s service: %w", serviceAction, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service action '%s' completed successfully.\n", serviceAction)
				return nil
			}

			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if a.cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			s, err := service.New(&program{app: a}, svcConfig)
			if err != nil {
				a.close()
				return err
			}
			// Blocks until the service manager or an interrupt stops it
			return s.Run()
		},
	}
	cmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop, restart")
	return cmd
}
