package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/kobodl/server"
)

type serveCmd struct {
	rt        *runtime
	Host      string `short:"H" long:"host" default:"127.0.0.1" description:"listen host"`
	Port      int    `short:"p" long:"port" default:"5000" description:"listen port"`
	OutputDir string `short:"o" long:"output-dir" default:"kobo_downloads" description:"directory downloads are served from"`
}

func (c *serveCmd) Execute(args []string) error {
	ctx := context.Background()
	service, err := c.rt.settings(ctx)
	if err != nil {
		return err
	}
	srv, err := server.New(
		server.WithSettings(service),
		server.WithOutputDir(c.OutputDir),
		server.WithAddr(fmt.Sprintf("%v:%v", c.Host, c.Port)),
		server.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}
	httpServer := srv.HTTP(ctx, "")
	slog.Info("serving", "addr", httpServer.Addr)
	return httpServer.ListenAndServe()
}
