// Package cli implements the kobodl command line interface.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/viant/kobodl/settings"
)

// Options holds the global flags shared by every command.
type Options struct {
	Config        string `short:"c" long:"config" description:"path to the kobodl settings file"`
	EncryptionKey string `short:"k" long:"key" description:"settings encryption key" env:"KOBODL_KEY"`
	Debug         bool   `long:"debug" description:"enable debug logging"`
}

// runtime carries the parsed global options and the lazily opened
// settings service to the commands.
type runtime struct {
	options *Options
	output  io.Writer

	settingsService *settings.Service
}

func (r *runtime) settings(ctx context.Context) (*settings.Service, error) {
	if r.settingsService != nil {
		return r.settingsService, nil
	}
	var options []settings.Option
	if r.options.EncryptionKey != "" {
		options = append(options, settings.WithEncryptionKey(r.options.EncryptionKey))
	}
	service, err := settings.New(ctx, r.options.Config, options...)
	if err != nil {
		return nil, err
	}
	r.settingsService = service
	return service, nil
}

func Run(args []string) error {

	options := &Options{}
	parser := flags.NewParser(options, flags.Default)
	rt := &runtime{options: options, output: os.Stdout}

	userCmd, err := parser.AddCommand("user", "show and create users", "", &struct{}{})
	if err != nil {
		return err
	}
	if _, err = userCmd.AddCommand("add", "add new user", "", &userAddCmd{rt: rt}); err != nil {
		return err
	}
	if _, err = userCmd.AddCommand("list", "list all users", "", &userListCmd{rt: rt}); err != nil {
		return err
	}
	if _, err = userCmd.AddCommand("rm", "remove user by Email, UserKey, or DeviceId", "", &userRemoveCmd{rt: rt}); err != nil {
		return err
	}

	bookCmd, err := parser.AddCommand("book", "list and download books", "", &struct{}{})
	if err != nil {
		return err
	}
	if _, err = bookCmd.AddCommand("list", "list books", "", &bookListCmd{rt: rt}); err != nil {
		return err
	}
	if _, err = bookCmd.AddCommand("get", "download books", "", &bookGetCmd{rt: rt}); err != nil {
		return err
	}
	if _, err = bookCmd.AddCommand("wishlist", "list wishlist items", "", &wishListCmd{rt: rt}); err != nil {
		return err
	}

	if _, err = parser.AddCommand("serve", "start the activation web server", "", &serveCmd{rt: rt}); err != nil {
		return err
	}

	parser.CommandHandler = func(command flags.Commander, args []string) error {
		level := slog.LevelInfo
		if options.Debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return command.Execute(args)
	}

	_, err = parser.ParseArgs(args)
	return err
}
