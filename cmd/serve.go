package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitwho2blame-go/config"
	"github.com/masmgr/gitwho2blame-go/internal/mcp"
	"github.com/masmgr/gitwho2blame-go/internal/observability"
	"github.com/masmgr/gitwho2blame-go/internal/server"
)

// ServeCmd returns the serve command.
func ServeCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server over stdio or streamable HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Usage:   "Transport type (stdio, http)",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address for the http transport",
			},
			&cli.StringFlag{
				Name:  "engine",
				Usage: "Local git engine (gogit, gitcli)",
			},
			&cli.IntFlag{
				Name:  "since-days",
				Usage: "Default look-back when a tool call gives no date",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Glob patterns of paths never looked up (can be specified multiple times)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	defer cc.Close()

	srv := mcp.NewServer(mcp.ServerDeps{
		Provider:  cc.Provider,
		Logger:    cc.Logger,
		Metrics:   cc.Metrics,
		Tracer:    observability.Tracer("github.com/masmgr/gitwho2blame-go/mcp"),
		SinceDays: cc.Config.Defaults.SinceDays,
		Version:   Version,
	})

	return runServer(ctx, cc, srv)
}

func runServer(ctx context.Context, cc *CommandContext, srv *mcp.Server) error {
	if cc.Config.Transport != config.TransportHTTP {
		cc.Logger.InfoContext(ctx, "serving MCP over stdio")
		return srv.Run(ctx)
	}

	router := server.NewRouter(server.RouterDeps{
		MCP:     srv.HTTPHandler(),
		Metrics: cc.Metrics.Handler(),
		Logger:  cc.Logger,
		Version: Version,
	})
	cc.Logger.InfoContext(ctx, "serving MCP over http", slog.String("addr", cc.Config.HTTP.Addr))
	return server.ListenAndServe(ctx, cc.Config.HTTP.Addr, router, cc.Logger)
}
