package models

import (
	"errors"
	"fmt"
)

// ErrValidation marks input that was rejected before any persistence call.
// The HTTP layer maps it to a 400 response. Not-found and uniqueness
// failures are reported with gorm.ErrRecordNotFound and
// gorm.ErrDuplicatedKey respectively.
var ErrValidation = errors.New("validation failed")

// ErrInvalidCursor is returned when a pagination cursor does not parse as a
// document identifier. Callers must echo cursors back verbatim; anything
// else is a caller bug, not a server crash.
var ErrInvalidCursor = fmt.Errorf("%w: malformed pagination cursor", ErrValidation)
