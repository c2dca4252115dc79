package extract

import (
	"strings"

	"github.com/guillem8cbii/basquet/internal/decode"
	"github.com/guillem8cbii/basquet/internal/jsontree"
	"github.com/guillem8cbii/basquet/internal/model"
)

var (
	homeKeys = []string{"equipoLocal", "local", "nameLocalTeam"}
	awayKeys = []string{"equipoVisitante", "visitante", "nameVisitorTeam"}
)

// JSONAdapter searches a decoded JSON tree for objects that look like fixtures
// of the configured team, wherever they are nested.
type JSONAdapter struct{}

func (JSONAdapter) Name() string { return FormatJSON }

// Extract decodes raw and walks the whole tree. Matching objects are still
// descended into, so a fixture nested inside another fixture is reported too.
func (a JSONAdapter) Extract(raw []byte, team TeamMatcher) ([]model.Match, error) {
	root, err := decode.Decode(raw)
	if err != nil {
		return nil, err
	}
	return a.FromTree(root, team), nil
}

// FromTree runs the search over an already decoded tree.
func (JSONAdapter) FromTree(root *jsontree.Node, team TeamMatcher) []model.Match {
	var out []model.Match
	jsontree.Walk(root, func(n *jsontree.Node) bool {
		if n.Kind != jsontree.Object {
			return true
		}
		home := pick(n, homeKeys...)
		away := pick(n, awayKeys...)
		if home == "" && away == "" {
			return true
		}
		if team.Matches(home) || team.Matches(away) {
			out = append(out, toMatch(n, home, away))
		}
		return true
	})
	return out
}

func toMatch(n *jsontree.Node, home, away string) model.Match {
	m := model.Match{
		ID:          pick(n, "id", "idMatch"),
		Home:        home,
		Away:        away,
		Date:        pick(n, "fecha"),
		Time:        pick(n, "hora"),
		Venue:       pick(n, "campo", "ubicacion", "nameField"),
		Address:     pick(n, "direccion", "adressField"),
		PostalCode:  pick(n, "codigoPostal", "postalCodeField"),
		Town:        pick(n, "localidad", "nameTown"),
		Competition: pick(n, "competicion", "categoria"),
	}
	if day := pick(n, "matchDay"); day != "" {
		date, clock := splitMatchDay(day)
		if m.Date == "" {
			m.Date = date
		}
		if m.Time == "" {
			m.Time = clock
		}
	}
	return m
}

// pick returns the first non-empty scalar value among keys.
func pick(n *jsontree.Node, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(n.Get(k).Text()); s != "" {
			return s
		}
	}
	return ""
}

// splitMatchDay splits "2024-03-10 18:00:00" (or an RFC 3339 style "T") into
// its date and time parts.
func splitMatchDay(s string) (date, clock string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
