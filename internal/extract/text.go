package extract

import (
	"regexp"
	"strings"

	"github.com/guillem8cbii/basquet/internal/decode"
	"github.com/guillem8cbii/basquet/internal/model"
)

// label finds a field label followed by whitespace. Labels may share a line.
var label = regexp.MustCompile(`\b(idMatch|nameLocalTeam|nameVisitorTeam|matchDay|nameField|adressField|postalCodeField|nameTown)\s+`)

// TextAdapter reads the flat "label value" dump some league endpoints return.
// A value runs to the next label or the end of its line. Every idMatch label
// starts a new record.
type TextAdapter struct{}

func (TextAdapter) Name() string { return FormatText }

func (TextAdapter) Extract(raw []byte, team TeamMatcher) ([]model.Match, error) {
	text := decode.Text(raw)

	var (
		out  []model.Match
		cur  *model.Match
		keep = func() {
			if cur == nil || (cur.Home == "" && cur.Away == "") {
				return
			}
			if team.Matches(cur.Home) || team.Matches(cur.Away) {
				out = append(out, *cur)
			}
		}
	)

	locs := label.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		value := text[loc[1]:end]
		if nl := strings.IndexAny(value, "\r\n"); nl >= 0 {
			value = value[:nl]
		}
		value = strings.TrimSpace(value)

		name := text[loc[2]:loc[3]]
		if name == "idMatch" {
			keep()
			cur = &model.Match{ID: value}
			continue
		}
		if cur == nil {
			cur = &model.Match{}
		}
		switch name {
		case "nameLocalTeam":
			cur.Home = value
		case "nameVisitorTeam":
			cur.Away = value
		case "matchDay":
			cur.Date, cur.Time = splitMatchDay(value)
		case "nameField":
			cur.Venue = value
		case "adressField":
			cur.Address = value
		case "postalCodeField":
			cur.PostalCode = value
		case "nameTown":
			cur.Town = value
		}
	}
	keep()
	return out, nil
}
