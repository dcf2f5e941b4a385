package httpserver

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jw6ventures/punchclock/internal/auth"
	httperrors "github.com/jw6ventures/punchclock/internal/http/errors"
	"github.com/jw6ventures/punchclock/internal/store"
)

// authTest reports the caller's access level, NONE when anonymous.
func (s *server) authTest(w http.ResponseWriter, r *http.Request) {
	level := store.AccessNone
	if cred, ok := auth.CredentialFromContext(r.Context()); ok {
		level = cred.AccessLevel
	}
	httperrors.WriteJSON(w, http.StatusOK, map[string]store.AccessLevel{"accessLevel": level})
}

func (s *server) loggedIn(w http.ResponseWriter, r *http.Request) {
	users, err := s.LoggedIn.LoggedInUsers(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, s.Logger, err, "logged-in lookup failed")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, users)
}

func (s *server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range s.Checks {
		if err := check.Check(ctx); err != nil {
			s.Logger.Warn("readiness check failed", zap.String("check", check.Name), zap.Error(err))
			http.Error(w, "unready: "+check.Name, http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
