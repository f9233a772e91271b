package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/viant/kobodl/internal/ctxlog"
	"github.com/viant/kobodl/schema"
	"github.com/viant/kobodl/settings"
)

// usersPage feeds the users template.
type usersPage struct {
	Users              []*settings.User
	Error              string
	PollIntervalMillis int64
}

// booksPage feeds the books template.
type booksPage struct {
	Books []*schema.Book
	Error string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/user", http.StatusFound)
}

// handleUsers renders the user list and, on POST, begins the activation:
// it returns a JSON activation challenge the page polls against. A POST
// without an email re-renders the page with an error instead.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	pageError := ""
	if r.Method == http.MethodPost {
		email := r.FormValue("email")
		if email == "" {
			pageError = "email is required"
		} else {
			user := &settings.User{Email: email}
			checkURL, code, err := s.newClient(user).ActivateOnWeb(r.Context())
			if err != nil {
				ctxlog.FromContext(r.Context()).Error("failed to begin activation", "email", email, "error", err)
				pageError = err.Error()
			} else {
				s.writeJSON(w, http.StatusOK, &schema.ActivationChallenge{
					ActivationURL:  schema.ActivationURL,
					ActivationCode: code,
					CheckURL:       checkURL,
					Email:          email,
				})
				return
			}
		}
	}
	s.render(w, "users.html", &usersPage{
		Users:              s.settings.Users.All(),
		Error:              pageError,
		PollIntervalMillis: s.pollInterval.Milliseconds(),
	})
}

// handleCheckActivation polls the Kobo activation state once. Completion
// finishes the device authentication, persists the new user and reports
// success; a pending activation reports success false so the page keeps
// polling.
func (s *Server) handleCheckActivation(w http.ResponseWriter, r *http.Request) {
	request := &schema.CheckActivationRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		s.writeError(w, schema.NewBadRequest("malformed request body"))
		return
	}
	if request.CheckURL == "" || request.Email == "" {
		s.writeError(w, schema.NewBadRequest("Missing required parameters"))
		return
	}
	user := &settings.User{Email: request.Email}
	kobo := s.newClient(user)
	state, err := kobo.CheckActivation(r.Context(), request.CheckURL)
	if err != nil {
		s.writeError(w, schema.NewBadRequest(err.Error()))
		return
	}
	if !state.Completed() {
		s.writeJSON(w, http.StatusOK, &schema.ActivationOutcome{Success: false})
		return
	}
	user.Email = state.UserEmail
	user.UserId = state.UserId
	if err = kobo.AuthenticateDevice(r.Context(), state.UserKey); err != nil {
		s.writeError(w, schema.NewBadRequest(err.Error()))
		return
	}
	if err = kobo.LoadInitializationSettings(r.Context()); err != nil {
		s.writeError(w, schema.NewBadRequest(err.Error()))
		return
	}
	s.settings.Users.Add(user)
	if err = s.settings.Save(r.Context()); err != nil {
		s.writeError(w, schema.NewError(http.StatusInternalServerError, err.Error()))
		return
	}
	ctxlog.FromContext(r.Context()).Info("user activated", "email", user.Email)
	s.writeJSON(w, http.StatusOK, &schema.ActivationOutcome{Success: true})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["userid"]
	if s.settings.Users.Remove(identifier) == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.settings.Save(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/user", http.StatusFound)
}

func (s *Server) handleUserBooks(w http.ResponseWriter, r *http.Request) {
	user := s.settings.Users.Lookup(mux.Vars(r)["userid"])
	if user == nil {
		http.NotFound(w, r)
		return
	}
	s.renderBooks(w, r, []*settings.User{user})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	s.renderBooks(w, r, s.settings.Users.All())
}

func (s *Server) renderBooks(w http.ResponseWriter, r *http.Request, users []*settings.User) {
	page := &booksPage{}
	books, err := s.books.List(r.Context(), users, false)
	if err != nil {
		page.Error = err.Error()
	}
	page.Books = books
	s.render(w, "books.html", page)
}

// handleDownloadBook downloads the product on demand and serves it as an
// attachment.
func (s *Server) handleDownloadBook(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user := s.settings.Users.Lookup(vars["userid"])
	if user == nil {
		http.NotFound(w, r)
		return
	}
	outputPath, err := s.books.Get(r.Context(), user, s.outputDir, vars["productid"])
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("download failed", "product", vars["productid"], "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.settings.Downloads.Mark(user.UserId, vars["productid"])
	if err = s.settings.Save(r.Context()); err != nil {
		ctxlog.FromContext(r.Context()).Warn("failed to record download", "error", err)
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(outputPath)+`"`)
	http.ServeFile(w, r, outputPath)
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, err *schema.Error) {
	s.writeJSON(w, err.StatusCode, err)
}
