package repository

import (
	"errors"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "23505") ||
		strings.Contains(errMsg, "duplicate key")
}

// round rounds v to the given number of decimals
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
