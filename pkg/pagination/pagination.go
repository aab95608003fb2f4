package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 100

// Limit extracts the "limit" query parameter from the echo context. Missing,
// malformed or non-positive values yield def; larger values are capped at
// MaxLimit.
func Limit(c echo.Context, def int) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}
