package logic

import (
	"math"
	"strconv"
	"strings"

	"github.com/headdrop/leaderboard-web/internal/models"
)

// ParsePage extracts the requested page from a raw query string.
// Only plain digit values count; the first usable "page=" parameter wins and
// anything missing, malformed, zero or too large for an int resolves to 1.
func ParsePage(rawQuery string) int {
	if rawQuery == "" {
		return 1
	}
	for _, param := range strings.Split(rawQuery, "&") {
		value, ok := strings.CutPrefix(param, "page=")
		if !ok || !isDigits(value) {
			continue
		}
		page, err := strconv.Atoi(value)
		if err != nil || page < 1 {
			continue
		}
		return page
	}
	return 1
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Paginate returns the window of a snapshot of the given length shown on page.
// Pages past the data yield an empty window rather than an error.
func Paginate(length, page, size int) models.PageWindow {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = models.PageSize
	}
	if length < 0 {
		length = 0
	}

	// (page-1)*size would overflow for absurd page numbers; those are past
	// the data anyway.
	if page-1 > (math.MaxInt-size)/size {
		return models.PageWindow{Page: page, Start: length, End: length}
	}

	start := (page - 1) * size
	if start >= length {
		return models.PageWindow{Page: page, Start: length, End: length}
	}
	return models.PageWindow{Page: page, Start: start, End: min(start+size, length)}
}

// TotalPages is ceil(length / size).
func TotalPages(length, size int) int {
	if size < 1 {
		size = models.PageSize
	}
	if length <= 0 {
		return 0
	}
	return (length + size - 1) / size
}
