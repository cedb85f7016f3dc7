package runid

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidRunID = errors.New("runid: invalid run id")

var newV7 = uuid.NewV7

// New returns a time-ordered identifier for one sync cycle (UUIDv7, RFC 9562).
func New() (string, error) {
	u, err := newV7()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Parse accepts only UUIDv7 strings so run ids sort by start time.
func Parse(raw string) (uuid.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidRunID
	}
	if u.Version() != 7 || u.Variant() != uuid.RFC4122 {
		return uuid.Nil, ErrInvalidRunID
	}
	return u, nil
}
