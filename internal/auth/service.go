package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jw6ventures/punchclock/internal/store"
	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// AdminUsername is the credential bootstrapped from the configured admin
// password.
const AdminUsername = "admin"

var (
	ErrCredentialAlreadyExists = timeclock.NewError("cred_already_exists", timeclock.KindConflict, "credential already exists")
	ErrNoSuchCredential        = timeclock.NewError("cred_not_found", timeclock.KindNotFound, "no such credential")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAccessLevel = errors.New("invalid access level")
)

// dummyHash keeps failed lookups about as slow as failed password checks.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("punchclock"), bcrypt.DefaultCost)

// CredentialInfo is a credential without its password hash.
type CredentialInfo struct {
	Username    string            `json:"username"`
	AccessLevel store.AccessLevel `json:"accessLevel"`
}

// Service manages API credentials.
type Service struct {
	creds  store.CredentialRepository
	cost   int
	logger *zap.Logger
}

func NewService(creds store.CredentialRepository, logger *zap.Logger) *Service {
	return &Service{creds: creds, cost: bcrypt.DefaultCost, logger: logger}
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// AddCredential stores a new credential.
func (s *Service) AddCredential(ctx context.Context, level store.AccessLevel, username, password string) error {
	if _, ok := accessRank[level]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAccessLevel, level)
	}
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	err = s.creds.Create(ctx, store.Credential{Username: username, PasswordHash: hash, AccessLevel: level})
	if errors.Is(err, store.ErrConflict) {
		return ErrCredentialAlreadyExists
	}
	if err != nil {
		return err
	}
	s.logger.Info("credential added", zap.String("username", username), zap.String("access_level", string(level)))
	return nil
}

// RemoveCredential deletes a credential.
func (s *Service) RemoveCredential(ctx context.Context, username string) error {
	err := s.creds.Delete(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoSuchCredential
	}
	if err != nil {
		return err
	}
	s.logger.Info("credential removed", zap.String("username", username))
	return nil
}

// ListCredentials returns every credential without password hashes.
func (s *Service) ListCredentials(ctx context.Context) ([]CredentialInfo, error) {
	creds, err := s.creds.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CredentialInfo, len(creds))
	for i, c := range creds {
		out[i] = CredentialInfo{Username: c.Username, AccessLevel: c.AccessLevel}
	}
	return out, nil
}

// Authenticate checks a username and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*store.Credential, error) {
	cred, err := s.creds.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return cred, nil
}

// EnsureAdmin creates or resets the admin credential with password.
func (s *Service) EnsureAdmin(ctx context.Context, password string) error {
	if password == "" {
		return errors.New("admin password must not be empty")
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.creds.Upsert(ctx, store.Credential{Username: AdminUsername, PasswordHash: hash, AccessLevel: store.AccessAdmin}); err != nil {
		return fmt.Errorf("bootstrap admin credential: %w", err)
	}
	return nil
}

// RequireAccess enforces HTTP Basic auth and a minimum access level. The
// authenticated credential is stored in the request context.
func (s *Service) RequireAccess(required store.AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || username == "" || password == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="punchclock"`)
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			cred, err := s.Authenticate(r.Context(), username, password)
			if errors.Is(err, ErrInvalidCredentials) {
				w.Header().Set("WWW-Authenticate", `Basic realm="punchclock"`)
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			if err != nil {
				s.logger.Error("credential lookup failed", zap.String("username", username), zap.Error(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if !Grants(cred.AccessLevel, required) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), cred)))
		})
	}
}

// Identify authenticates the request when it carries Basic credentials and
// passes anonymous requests through unchanged. Bad credentials are rejected.
func (s *Service) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		cred, err := s.Authenticate(r.Context(), username, password)
		if errors.Is(err, ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", `Basic realm="punchclock"`)
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err != nil {
			s.logger.Error("credential lookup failed", zap.String("username", username), zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), cred)))
	})
}
