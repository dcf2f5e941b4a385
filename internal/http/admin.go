package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/auth"
	httperrors "github.com/jw6ventures/punchclock/internal/http/errors"
	"github.com/jw6ventures/punchclock/internal/timeclock"
)

type addCredentialRequest struct {
	AccessLevel string `json:"accessLevel"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

type historyEvent struct {
	Timestamp  string `json:"timestamp"`
	ClockingIn bool   `json:"clockingIn"`
}

// requireParams reads the named form values and rejects the request when
// any is empty.
func (s *server) requireParams(w http.ResponseWriter, r *http.Request, names ...string) ([]string, bool) {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = r.FormValue(name)
		if values[i] == "" {
			httperrors.BadRequestError(w, r, s.Logger, errors.New("missing "+name), "bad_request")
			return nil, false
		}
	}
	return values, true
}

// optionalParam returns a pointer to the form value when the client sent it.
func optionalParam(r *http.Request, name string) *string {
	if !r.Form.Has(name) {
		return nil
	}
	v := r.Form.Get(name)
	return &v
}

func (s *server) addCredential(w http.ResponseWriter, r *http.Request) {
	var req addCredentialRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, s.Logger, err, "bad_request")
		return
	}
	level, err := auth.ParseAccessLevel(req.AccessLevel)
	if err != nil {
		httperrors.BadRequestError(w, r, s.Logger, err, "bad_access_level")
		return
	}
	if req.Username == "" || req.Password == "" {
		httperrors.BadRequestError(w, r, s.Logger, errors.New("missing username or password"), "bad_request")
		return
	}
	if err := s.Credentials.AddCredential(r.Context(), level, req.Username, req.Password); err != nil {
		httperrors.DomainError(w, r, s.Logger, err, "add credential failed")
		return
	}
	s.Logger.Info("credential created", zap.String("username", req.Username), zap.String("access_level", string(level)))
	w.WriteHeader(http.StatusOK)
}

func (s *server) removeCredential(w http.ResponseWriter, r *http.Request) {
	params, ok := s.requireParams(w, r, "username")
	if !ok {
		return
	}
	if err := s.Credentials.RemoveCredential(r.Context(), params[0]); err != nil {
		httperrors.DomainError(w, r, s.Logger, err, "remove credential failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) allCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.Credentials.ListCredentials(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, s.Logger, err, "list credentials failed")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, map[string][]auth.CredentialInfo{"credentials": creds})
}

func (s *server) addUser(w http.ResponseWriter, r *http.Request) {
	params, ok := s.requireParams(w, r, "id", "name", "email")
	if !ok {
		return
	}
	if _, err := s.Admin.AddUser(r.Context(), params[0], params[1], params[2]); err != nil {
		httperrors.DomainError(w, r, s.Logger, err, "add user failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) removeUser(w http.ResponseWriter, r *http.Request) {
	params, ok := s.requireParams(w, r, "id")
	if !ok {
		return
	}
	if err := s.Admin.RemoveUser(r.Context(), params[0]); err != nil {
		httperrors.DomainError(w, r, s.Logger, err, "remove user failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) editUser(w http.ResponseWriter, r *http.Request) {
	params, ok := s.requireParams(w, r, "id")
	if !ok {
		return
	}
	changes := timeclock.UserChanges{
		ID:    optionalParam(r, "newId"),
		Name:  optionalParam(r, "newName"),
		Email: optionalParam(r, "newEmail"),
	}
	if _, err := s.Admin.EditUser(r.Context(), params[0], changes); err != nil {
		httperrors.DomainError(w, r, s.Logger, err, "edit user failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) allUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Admin.AllUsers(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, s.Logger, err, "list users failed")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, map[string][]timeclock.UserSummary{"users": users})
}

func (s *server) userHistory(w http.ResponseWriter, r *http.Request) {
	params, ok := s.requireParams(w, r, "id")
	if !ok {
		return
	}
	events, err := s.Admin.UserHistory(r.Context(), params[0])
	if err != nil {
		httperrors.DomainError(w, r, s.Logger, err, "user history failed")
		return
	}
	hist := make([]historyEvent, len(events))
	for i, ev := range events {
		hist[i] = historyEvent{Timestamp: strconv.FormatInt(ev.Timestamp, 10), ClockingIn: ev.ClockingIn}
	}
	httperrors.WriteJSON(w, http.StatusOK, map[string][]historyEvent{"events": hist})
}

func (s *server) reset(w http.ResponseWriter, r *http.Request) {
	s.Logger.Info("resetting all user hour counts")
	if err := s.Admin.ResetAllHours(r.Context()); err != nil {
		httperrors.InternalError(w, r, s.Logger, err, "reset failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) voidClock(w http.ResponseWriter, r *http.Request) {
	params, ok := s.requireParams(w, r, "id")
	if !ok {
		return
	}
	if err := s.Admin.VoidLastClock(r.Context(), params[0]); err != nil {
		httperrors.DomainError(w, r, s.Logger, err, "void clock failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}
