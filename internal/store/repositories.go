package store

import "context"

// UserRepository persists users together with their clock event ledger.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByName(ctx context.Context, name string) (*User, error)
	Save(ctx context.Context, user User) (*User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	DeleteByID(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]User, error)
	FindAllCurrentlyIn(ctx context.Context) ([]User, error)
}

// HoursCache maps a user id to the last computed worked total in milliseconds.
// Entries are hints; a miss means the total must be recomputed.
type HoursCache interface {
	Get(ctx context.Context, userID string) (int64, bool, error)
	Put(ctx context.Context, userID string, totalMs int64) error
	Delete(ctx context.Context, userID string) error
	DeleteAll(ctx context.Context) error
}

// CredentialRepository stores API credentials.
type CredentialRepository interface {
	Create(ctx context.Context, cred Credential) error
	Upsert(ctx context.Context, cred Credential) error
	Get(ctx context.Context, username string) (*Credential, error)
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]Credential, error)
}

// AnalyticsRepository appends analytics events.
type AnalyticsRepository interface {
	Insert(ctx context.Context, event AnalyticsEvent) error
}
