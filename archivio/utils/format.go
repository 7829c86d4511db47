package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
)

func Ptr[T any](v T) *T {
	return &v
}

// PageCount returns how many pages n items fill, never less than one.
func PageCount(n, perPage int) int {
	if perPage <= 0 || n <= 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}

// PageBounds returns the slice bounds of page (zero based).
func PageBounds(page, perPage, n int) (int, int) {
	start := min(page*perPage, n)
	end := min(start+perPage, n)
	return start, end
}

// ProgressBar renders used/total as a fixed-width bar.
func ProgressBar(used, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = min(width, max(0, used*width/total))
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

// FormatDate renders t in loc as "02/01/2006 15:04".
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02/01/2006 15:04")
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// ParseContacts reads "Nome:3, Altro nome:2" into contacts.
func ParseContacts(raw string) ([]models.Contact, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []models.Contact{}, nil
	}

	parts := strings.Split(raw, ",")
	contacts := make([]models.Contact, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.LastIndex(part, ":")
		if idx <= 0 {
			return nil, gameerr.Validation("Contatto %q non valido, usa Nome:valore", part)
		}
		value, err := strconv.Atoi(strings.TrimSpace(part[idx+1:]))
		if err != nil {
			return nil, gameerr.Validation("Valore del contatto %q non valido", part)
		}
		contacts = append(contacts, models.Contact{
			Name:  strings.TrimSpace(part[:idx]),
			Value: value,
		})
	}
	return contacts, nil
}

// FormatContacts is the inverse of ParseContacts.
func FormatContacts(contacts []models.Contact) string {
	if len(contacts) == 0 {
		return "nessuno"
	}
	parts := make([]string, len(contacts))
	for i, c := range contacts {
		parts[i] = fmt.Sprintf("%s:%d", c.Name, c.Value)
	}
	return strings.Join(parts, ", ")
}
