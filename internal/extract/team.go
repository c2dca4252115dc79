package extract

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// TeamMatcher reports whether a team name refers to the configured team.
// Matching is a case-insensitive substring test using Unicode case folding.
type TeamMatcher struct {
	name   string
	folded string
}

// NewTeamMatcher builds a matcher for name. An empty name is rejected.
func NewTeamMatcher(name string) (TeamMatcher, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return TeamMatcher{}, errors.New("team name is empty")
	}
	return TeamMatcher{name: name, folded: fold(name)}, nil
}

// Name returns the configured team name.
func (t TeamMatcher) Name() string { return t.name }

// Matches reports whether candidate contains the team name.
func (t TeamMatcher) Matches(candidate string) bool {
	if t.folded == "" || candidate == "" {
		return false
	}
	return strings.Contains(fold(candidate), t.folded)
}

// cases.Caser carries state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
