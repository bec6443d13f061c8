package trilemma

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrInvalidRunID = errors.New("invalid run id")
	ErrRunNotFound  = errors.New("run not found")
)

const maxRunIDLen = 128

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Names that already have a meaning directly under the artifacts directory.
var reservedRunIDs = map[string]bool{
	".":              true,
	"..":             true,
	"series":         true,
	"run_index.json": true,
}

// validateRunID accepts ids that name exactly one entry directly under the
// artifacts directory. Series ids go through the same check since they are
// directory names and run id prefixes.
func validateRunID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidRunID)
	case len(id) > maxRunIDLen:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidRunID, maxRunIDLen)
	case !runIDPattern.MatchString(id):
		return fmt.Errorf("%w: %q may only contain letters, digits, '.', '_' and '-'", ErrInvalidRunID, id)
	case reservedRunIDs[id]:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidRunID, id)
	}
	return nil
}
