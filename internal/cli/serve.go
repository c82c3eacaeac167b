package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecoach/pkg/session"
	"github.com/teslashibe/go-posecoach/pkg/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, static string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the practice dashboard API and websocket feeds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if static != "" {
				a.cfg.Server.Static = static
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&static, "static", "", "directory of dashboard assets to serve at /")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	lib, err := a.library()
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var srv *web.Server
	src := a.buildSource(func(jpeg []byte, width, height int) {
		if srv != nil {
			srv.SendCameraFrame(jpeg, width, height)
		}
	})

	engine, err := a.newEngine(src.source, st)
	if err != nil {
		return err
	}

	opts := []web.Option{
		web.WithAddr(a.cfg.Server.Addr),
		web.WithHistory(st),
		web.WithBucket(a.cfg.Server.Bucket),
		web.WithMasteredThreshold(a.cfg.Server.MasteredThreshold),
		web.WithLogger(a.logger),
	}
	if a.cfg.Server.Static != "" {
		opts = append(opts, web.WithStatic(a.cfg.Server.Static))
	}
	if src.landmarks != nil {
		opts = append(opts, web.WithLandmarks(src.landmarks))
	}
	if src.camera != nil {
		opts = append(opts, web.WithCamera(src.camera))
	}
	srv = web.NewServer(engine, lib, opts...)

	stopFeeds, err := a.startFeeds(ctx, engine, src)
	if err != nil {
		return err
	}
	defer stopFeeds()

	a.logger.Info("posecoach serving",
		"addr", a.cfg.Server.Addr,
		"source", a.cfg.Tracking.Source,
		"store", a.cfg.Store.Path,
		"mqtt", a.cfg.MQTT.Enabled)

	runErr := srv.Run(ctx)

	// A session still running at shutdown is ended and saved.
	if engine.Running() {
		sum, err := engine.Stop(context.Background())
		switch {
		case err == nil:
			a.logger.Info("session saved on shutdown", "session", sum.SessionID, "count", sum.Count)
		case !errors.Is(err, session.ErrInvalidState):
			a.logger.Warn("stop session on shutdown", "error", err)
		}
	}
	return runErr
}
