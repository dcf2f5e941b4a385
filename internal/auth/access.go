package auth

import (
	"fmt"
	"strings"

	"github.com/jw6ventures/punchclock/internal/store"
)

var accessRank = map[store.AccessLevel]int{
	store.AccessNone:      0,
	store.AccessTimesheet: 1,
	store.AccessTimeclock: 2,
	store.AccessAdmin:     3,
}

// ParseAccessLevel accepts a level name in any case.
func ParseAccessLevel(s string) (store.AccessLevel, error) {
	level := store.AccessLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := accessRank[level]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccessLevel, s)
	}
	return level, nil
}

// Grants reports whether a credential at level may use routes that need
// required. Each level includes the levels below it.
func Grants(level, required store.AccessLevel) bool {
	have, ok := accessRank[level]
	if !ok {
		return false
	}
	return have >= accessRank[required]
}

// Roles lists the roles a level carries, lowest first.
func Roles(level store.AccessLevel) []store.AccessLevel {
	var roles []store.AccessLevel
	for _, l := range []store.AccessLevel{store.AccessTimesheet, store.AccessTimeclock, store.AccessAdmin} {
		if Grants(level, l) {
			roles = append(roles, l)
		}
	}
	return roles
}
