package violations

import (
	"strings"
)

// isSQLiteUniqueConstraint matches the unique-violation text produced by the
// sqlite driver used in unit tests. The driver does not expose a typed error
// for constraint failures.
func isSQLiteUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
