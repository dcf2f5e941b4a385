package timeclock

// Kind groups domain errors by how callers should react to them.
type Kind int

const (
	// KindNotFound means the referenced entity does not exist.
	KindNotFound Kind = iota + 1
	// KindConflict means the operation would break a uniqueness rule.
	KindConflict
	// KindIllegalTransition means the clock state machine forbids the request.
	KindIllegalTransition
)

// Error is a domain error carrying the short code reported to clients.
type Error struct {
	Code    string
	Kind    Kind
	message string
}

func (e *Error) Error() string { return e.message }

// NewError builds a domain error. Collaborator packages use it for their own
// codes so the HTTP layer can report every domain failure the same way.
func NewError(code string, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, message: message}
}

var (
	ErrUserNotFound          = NewError("not_found", KindNotFound, "user not found")
	ErrNoSuchUser            = NewError("not_found", KindNotFound, "no such user")
	ErrUserAlreadyExists     = NewError("already_exists", KindConflict, "user already exists")
	ErrAlreadyClockedInOrOut = NewError("repeat_clock", KindIllegalTransition, "user already clocked in or out")
	ErrNeverClockedIn        = NewError("never_clocked", KindIllegalTransition, "user has never clocked in")
)
