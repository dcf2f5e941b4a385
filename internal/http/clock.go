package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	httperrors "github.com/jw6ventures/punchclock/internal/http/errors"
	"github.com/jw6ventures/punchclock/internal/store"
)

type strippedUser struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type clockResponse struct {
	Time string `json:"time"`
}

// clock handles POST /clockapi/clock?user=&clockingIn=.
func (s *server) clock(w http.ResponseWriter, r *http.Request) {
	user := r.FormValue("user")
	if user == "" {
		httperrors.BadRequestError(w, r, s.Logger, errors.New("missing user"), "bad_request")
		return
	}
	clockingIn, err := strconv.ParseBool(r.FormValue("clockingIn"))
	if err != nil {
		httperrors.BadRequestError(w, r, s.Logger, err, "bad_request")
		return
	}

	now := s.Now().UnixMilli()
	if err := s.Clock.Record(r.Context(), user, now, clockingIn); err != nil {
		httperrors.DomainError(w, r, s.Logger, err, "clock request rejected")
		return
	}
	s.Logger.Debug("clock request accepted",
		zap.String("user", user),
		zap.Bool("clocking_in", clockingIn),
		zap.Int64("time", now))
	httperrors.WriteJSON(w, http.StatusOK, clockResponse{Time: strconv.FormatInt(now, 10)})
}

func (s *server) nameForID(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, "id", s.Users.FindByID)
}

func (s *server) idForName(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, "name", s.Users.FindByName)
}

func (s *server) lookup(w http.ResponseWriter, r *http.Request, param string, find func(ctx context.Context, key string) (*store.User, error)) {
	key := r.URL.Query().Get(param)
	if key == "" {
		httperrors.BadRequestError(w, r, s.Logger, errors.New("missing "+param), "bad_request")
		return
	}
	user, err := find(r.Context(), key)
	if err != nil {
		httperrors.InternalError(w, r, s.Logger, err, "user lookup failed")
		return
	}
	if user == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, strippedUser{Name: user.Name, ID: user.ID})
}
