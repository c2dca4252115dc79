package model

import "strings"

// Match is the normalized representation of one fixture, whatever format it came from.
// Every field is optional; the serializer substitutes placeholders for empty ones.
type Match struct {
	ID          string // upstream match id, may be empty
	Home        string // local team
	Away        string // visitor team
	Date        string // as received, e.g. 2024-03-10
	Time        string // as received, e.g. 18:00; empty means midnight
	Venue       string
	Address     string
	PostalCode  string
	Town        string
	Competition string
}

// Key returns a stable identity for duplicate suppression: the upstream id when
// present, otherwise a case-folded content key.
func (m Match) Key() string {
	if id := strings.TrimSpace(m.ID); id != "" {
		return "id:" + id
	}
	parts := []string{m.Home, m.Away, m.Date, m.Time}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return "content:" + strings.Join(parts, "|")
}
