package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehr/records/pkg/result"
)

const defaultBodyLimit = 1 << 20

// BodyLimit caps request bodies at limit ("64K", "1M", "1G" or bare bytes).
// A declared Content-Length over the cap is answered with 413 before the
// handler runs; undeclared bodies are cut off by http.MaxBytesReader, which
// fails the handler's read with *http.MaxBytesError.
func BodyLimit(limit string) echo.MiddlewareFunc {
	maxBytes := parseLimit(limit)
	msg := fmt.Sprintf("Request body exceeds maximum allowed size of %d bytes", maxBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > maxBytes {
				return c.JSON(http.StatusRequestEntityTooLarge, result.Fail[any](result.FaultInvalid, msg))
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			return next(c)
		}
	}
}

var sizeUnits = map[byte]int64{'K': 1 << 10, 'M': 1 << 20, 'G': 1 << 30}

// parseLimit falls back to 1 MB for empty, malformed or non-positive sizes.
func parseLimit(s string) int64 {
	s = strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "B")
	if s == "" {
		return defaultBodyLimit
	}
	unit := int64(1)
	if m, ok := sizeUnits[s[len(s)-1]]; ok {
		unit = m
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return defaultBodyLimit
	}
	return n * unit
}
