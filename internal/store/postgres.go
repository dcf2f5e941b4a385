package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool Pool
}

const userColumns = `id, name, email, in_now, last_event`

func (r *userRepo) FindByID(ctx context.Context, id string) (*User, error) {
	defer observeDB(ctx, "users.find_by_id")()

	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	events, err := r.loadEvents(ctx, []string{user.ID})
	if err != nil {
		return nil, err
	}
	user.ClockEvents = events[user.ID]
	return user, nil
}

func (r *userRepo) FindByName(ctx context.Context, name string) (*User, error) {
	defer observeDB(ctx, "users.find_by_name")()

	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name=$1 ORDER BY id LIMIT 1`, name)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by name: %w", err)
	}
	events, err := r.loadEvents(ctx, []string{user.ID})
	if err != nil {
		return nil, err
	}
	user.ClockEvents = events[user.ID]
	return user, nil
}

// Save upserts the user row and replaces its event ledger in one
// transaction. Writers for the same id are serialized by an advisory lock.
func (r *userRepo) Save(ctx context.Context, user User) (*User, error) {
	defer observeDB(ctx, "users.save")()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin save user %s: %w", user.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, user.ID); err != nil {
		return nil, fmt.Errorf("lock user %s: %w", user.ID, err)
	}

	const upsert = `INSERT INTO users (id, name, email, in_now, last_event)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email,
    in_now=EXCLUDED.in_now, last_event=EXCLUDED.last_event`
	if _, err := tx.Exec(ctx, upsert, user.ID, user.Name, user.Email, user.InNow, user.LastEvent); err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", user.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM clock_events WHERE user_id=$1`, user.ID); err != nil {
		return nil, fmt.Errorf("clear events for %s: %w", user.ID, err)
	}

	events := SortedEvents(user.ClockEvents)
	for _, ev := range events {
		if _, err := tx.Exec(ctx, `INSERT INTO clock_events (user_id, ts, clocking_in) VALUES ($1, $2, $3)`,
			user.ID, ev.Timestamp, ev.ClockingIn); err != nil {
			return nil, fmt.Errorf("insert event for %s: %w", user.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit save user %s: %w", user.ID, err)
	}

	saved := user
	saved.ClockEvents = events
	return &saved, nil
}

func (r *userRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	defer observeDB(ctx, "users.exists")()

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user %s: %w", id, err)
	}
	return exists, nil
}

func (r *userRepo) DeleteByID(ctx context.Context, id string) error {
	defer observeDB(ctx, "users.delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) FindAll(ctx context.Context) ([]User, error) {
	defer observeDB(ctx, "users.find_all")()
	return r.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// FindAllCurrentlyIn returns users flagged as in, plus users without a flag
// whose latest event is a clock-in.
func (r *userRepo) FindAllCurrentlyIn(ctx context.Context) ([]User, error) {
	defer observeDB(ctx, "users.find_currently_in")()

	const q = `SELECT u.id, u.name, u.email, u.in_now, u.last_event FROM users u
WHERE u.in_now IS TRUE
   OR (u.in_now IS NULL AND (
        SELECT e.clocking_in FROM clock_events e
        WHERE e.user_id = u.id ORDER BY e.ts DESC, e.id DESC LIMIT 1) IS TRUE)
ORDER BY u.id`
	return r.listUsers(ctx, q)
}

func (r *userRepo) listUsers(ctx context.Context, q string, args ...any) ([]User, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return users, nil
	}

	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	events, err := r.loadEvents(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].ClockEvents = events[users[i].ID]
	}
	return users, nil
}

func (r *userRepo) loadEvents(ctx context.Context, ids []string) (map[string][]ClockEvent, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, ts, clocking_in FROM clock_events
WHERE user_id = ANY($1) ORDER BY user_id, ts, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("load clock events: %w", err)
	}
	defer rows.Close()

	events := make(map[string][]ClockEvent, len(ids))
	for rows.Next() {
		var (
			userID string
			ev     ClockEvent
		)
		if err := rows.Scan(&userID, &ev.Timestamp, &ev.ClockingIn); err != nil {
			return nil, fmt.Errorf("scan clock event: %w", err)
		}
		events[userID] = append(events[userID], ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load clock events: %w", err)
	}
	return events, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.InNow, &u.LastEvent); err != nil {
		return nil, err
	}
	return &u, nil
}

// SortedEvents returns a copy of events ordered by timestamp. Events with
// equal timestamps keep their relative order.
func SortedEvents(events []ClockEvent) []ClockEvent {
	sorted := make([]ClockEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}

// hoursCacheRepo implements HoursCache on the time_cache table.
type hoursCacheRepo struct {
	pool Pool
}

func (r *hoursCacheRepo) Get(ctx context.Context, userID string) (int64, bool, error) {
	defer observeDB(ctx, "time_cache.get")()

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT total_ms FROM time_cache WHERE user_id=$1`, userID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read time cache for %s: %w", userID, err)
	}
	return total, true, nil
}

func (r *hoursCacheRepo) Put(ctx context.Context, userID string, totalMs int64) error {
	defer observeDB(ctx, "time_cache.put")()

	const q = `INSERT INTO time_cache (user_id, total_ms) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET total_ms=EXCLUDED.total_ms, updated_at=NOW()`
	if _, err := r.pool.Exec(ctx, q, userID, totalMs); err != nil {
		return fmt.Errorf("write time cache for %s: %w", userID, err)
	}
	return nil
}

func (r *hoursCacheRepo) Delete(ctx context.Context, userID string) error {
	defer observeDB(ctx, "time_cache.delete")()

	if _, err := r.pool.Exec(ctx, `DELETE FROM time_cache WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete time cache for %s: %w", userID, err)
	}
	return nil
}

func (r *hoursCacheRepo) DeleteAll(ctx context.Context) error {
	defer observeDB(ctx, "time_cache.delete_all")()

	if _, err := r.pool.Exec(ctx, `DELETE FROM time_cache`); err != nil {
		return fmt.Errorf("clear time cache: %w", err)
	}
	return nil
}

// credentialRepo implements CredentialRepository.
type credentialRepo struct {
	pool Pool
}

func (r *credentialRepo) Create(ctx context.Context, cred Credential) error {
	defer observeDB(ctx, "credentials.create")()

	_, err := r.pool.Exec(ctx, `INSERT INTO credentials (username, password_hash, access_level) VALUES ($1, $2, $3)`,
		cred.Username, cred.PasswordHash, string(cred.AccessLevel))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create credential %s: %w", cred.Username, err)
	}
	return nil
}

func (r *credentialRepo) Upsert(ctx context.Context, cred Credential) error {
	defer observeDB(ctx, "credentials.upsert")()

	const q = `INSERT INTO credentials (username, password_hash, access_level) VALUES ($1, $2, $3)
ON CONFLICT (username) DO UPDATE SET password_hash=EXCLUDED.password_hash, access_level=EXCLUDED.access_level`
	if _, err := r.pool.Exec(ctx, q, cred.Username, cred.PasswordHash, string(cred.AccessLevel)); err != nil {
		return fmt.Errorf("upsert credential %s: %w", cred.Username, err)
	}
	return nil
}

func (r *credentialRepo) Get(ctx context.Context, username string) (*Credential, error) {
	defer observeDB(ctx, "credentials.get")()

	var (
		cred  Credential
		level string
	)
	err := r.pool.QueryRow(ctx, `SELECT username, password_hash, access_level, created_at FROM credentials WHERE username=$1`, username).
		Scan(&cred.Username, &cred.PasswordHash, &level, &cred.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", username, err)
	}
	cred.AccessLevel = AccessLevel(level)
	return &cred, nil
}

func (r *credentialRepo) Delete(ctx context.Context, username string) error {
	defer observeDB(ctx, "credentials.delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM credentials WHERE username=$1`, username)
	if err != nil {
		return fmt.Errorf("delete credential %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *credentialRepo) List(ctx context.Context) ([]Credential, error) {
	defer observeDB(ctx, "credentials.list")()

	rows, err := r.pool.Query(ctx, `SELECT username, password_hash, access_level, created_at FROM credentials ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		var (
			cred  Credential
			level string
		)
		if err := rows.Scan(&cred.Username, &cred.PasswordHash, &level, &cred.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		cred.AccessLevel = AccessLevel(level)
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// analyticsRepo implements AnalyticsRepository.
type analyticsRepo struct {
	pool Pool
}

func (r *analyticsRepo) Insert(ctx context.Context, event AnalyticsEvent) error {
	defer observeDB(ctx, "analytics.insert")()

	_, err := r.pool.Exec(ctx, `INSERT INTO analytics_events (id, ts, username, description) VALUES ($1, $2, $3, $4)`,
		event.ID, event.Timestamp, event.User, event.Description)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}
