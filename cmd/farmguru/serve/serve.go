package servecmder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/farmguru/api"
	"github.com/papercomputeco/farmguru/cmd/farmguru/setup"
	"github.com/papercomputeco/farmguru/pkg/config"
	"github.com/papercomputeco/farmguru/pkg/content"
	"github.com/papercomputeco/farmguru/pkg/logger"
)

const serveLongDesc string = `Serve the farm guide and Farm Guru chat over HTTP.

Endpoints:
  GET    /health
  GET    /topics, /topics/:key, /topics/:key/:section
  POST   /sessions                 start a conversation
  GET    /sessions/:id             state and transcript (ETag: transcript head)
  DELETE /sessions/:id             end a conversation
  POST   /sessions/:id/messages    ask; the reply streams as ndjson events
  /mcp                             Model Context Protocol (list_topics, read_topic)

With --watch, edits to the config file apply to new sessions without a
restart.

Examples:
  farmguru serve
  farmguru serve --listen 127.0.0.1:9000 --watch`

const serveShortDesc string = "Serve the farm guide over HTTP"

// shutdownTimeout bounds how long open replies may take to finish on exit.
const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	flags  setup.Flags
	listen string
	watch  bool

	// listener replaces listening on the configured address when set
	listener net.Listener
}

func NewServeCmd() *cobra.Command {
	return newServeCmd(&serveCommander{})
}

func newServeCmd(cmder *serveCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	setup.AddFlags(cmd, &cmder.flags)
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default: server.listen from config, \":8080\")")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Reload the config file when it changes")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg, path, err := setup.LoadConfig(c.flags)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Server.Listen = c.listen
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	log.Info("farmguru server starting",
		zap.String("listen", cfg.Server.Listen),
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Bool("debug", cfg.Debug),
	)

	manager, err := setup.NewManager(cfg, log)
	if err != nil {
		return err
	}

	navigator, err := content.NewNavigator()
	if err != nil {
		return fmt.Errorf("could not load topics: %w", err)
	}

	srv, err := api.NewServer(api.Config{
		ListenAddr: cfg.Server.Listen,
		RateLimit:  cfg.Server.RateLimit,
		Burst:      cfg.Server.Burst,
		Version:    setup.Version,
	}, manager, navigator, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer srv.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if c.listener != nil {
			return srv.RunWithListener(c.listener)
		}
		return srv.Run()
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if c.watch {
		g.Go(func() error {
			err := config.Watch(gctx, path, log, func(next *config.Config) {
				m, err := setup.NewManager(next, log)
				if err != nil {
					log.Warn("keeping previous chat configuration", zap.Error(err))
					return
				}
				srv.SetManager(m)
			})
			if err != nil {
				// Serving goes on with the configuration already loaded
				log.Warn("config reload disabled", zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
