package database

import (
	"errors"

	"github.com/lib/pq"
)

// Constraint names declared in migrations/.
const (
	VisitorsPixelSessionKey = "visitors_pixel_session_key"
	UsersEmailKey           = "users_email_key"
)

// IsUniqueViolation reports whether err is a Postgres unique_violation. When
// constraints are given, the violation must come from one of them.
func IsUniqueViolation(err error, constraints ...string) bool {
	return isViolation(err, "unique_violation", constraints)
}

// IsForeignKeyViolation reports whether err is a Postgres foreign_key_violation.
func IsForeignKeyViolation(err error, constraints ...string) bool {
	return isViolation(err, "foreign_key_violation", constraints)
}

func isViolation(err error, code string, constraints []string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code.Name() != code {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pqErr.Constraint == c {
			return true
		}
	}
	return false
}
