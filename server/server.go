// Package server exposes the activation workflow and the per-user library
// over HTTP. The web pages drive the two-phase activation: a form POST
// starts it and returns an activation challenge, then the page polls the
// check-activation contract until the user completed the activation on
// the Kobo website.
package server

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/viant/kobodl/book"
	"github.com/viant/kobodl/client"
	"github.com/viant/kobodl/settings"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	defaultAddr         = "127.0.0.1:5000"
	defaultOutputDir    = "kobo_downloads"
	defaultPollInterval = 5 * time.Second
)

// Server handles the activation and library HTTP endpoints.
type Server struct {
	settings      *settings.Service
	books         *book.Service
	clientOptions []client.Option

	addr         string
	outputDir    string
	pollInterval time.Duration
	logger       *slog.Logger
	templates    *template.Template
}

// New creates a server. A settings service is required; everything else
// has defaults.
func New(options ...Option) (*Server, error) {
	ret := &Server{
		addr:         defaultAddr,
		outputDir:    defaultOutputDir,
		pollInterval: defaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range options {
		if err := opt(ret); err != nil {
			return nil, err
		}
	}
	if ret.settings == nil {
		return nil, errNoSettings
	}
	ret.books = book.New(book.WithClientOptions(ret.clientOptions...))
	templates, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}
	ret.templates = templates
	return ret, nil
}

func (s *Server) newClient(user *settings.User) *client.Client {
	return client.New(user, s.clientOptions...)
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/user", s.handleUsers).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/user/check-activation", s.handleCheckActivation).Methods(http.MethodPost)
	router.HandleFunc("/user/{userid}/remove", s.handleRemoveUser).Methods(http.MethodPost)
	router.HandleFunc("/user/{userid}/book", s.handleUserBooks).Methods(http.MethodGet)
	router.HandleFunc("/user/{userid}/book/{productid}", s.handleDownloadBook).Methods(http.MethodGet)
	router.HandleFunc("/book", s.handleBooks).Methods(http.MethodGet)
	return ChainMiddlewareHandlers(router, loggingMiddleware(s.logger))
}

// HTTP creates the HTTP server bound to addr; an empty addr selects the
// configured address.
func (s *Server) HTTP(_ context.Context, addr string) *http.Server {
	if addr == "" {
		addr = s.addr
	}
	return &http.Server{Addr: addr, Handler: s.Router()}
}
