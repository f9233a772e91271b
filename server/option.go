package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/viant/kobodl/client"
	"github.com/viant/kobodl/settings"
)

var errNoSettings = errors.New("settings service is required")

// Option is a function that configures the server.
type Option func(s *Server) error

// WithSettings sets the settings service holding users and downloads.
func WithSettings(service *settings.Service) Option {
	return func(s *Server) error {
		s.settings = service
		return nil
	}
}

// WithAddr sets the default listen address.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithOutputDir sets the directory downloaded books are written to.
func WithOutputDir(outputDir string) Option {
	return func(s *Server) error {
		s.outputDir = outputDir
		return nil
	}
}

// WithPollInterval sets the interval the activation pages poll at.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Server) error {
		if interval <= 0 {
			return errors.New("poll interval must be positive")
		}
		s.pollInterval = interval
		return nil
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithClientOptions sets options applied to every store client the server
// creates.
func WithClientOptions(options ...client.Option) Option {
	return func(s *Server) error {
		s.clientOptions = options
		return nil
	}
}
