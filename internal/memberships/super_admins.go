package memberships

import (
	"sort"
	"strings"
)

// SuperAdmins is the configured set of platform-wide moderators, keyed by
// lower-cased email. They bypass membership checks on moderation endpoints.
type SuperAdmins struct {
	emails map[string]struct{}
}

func NewSuperAdmins(emails []string) SuperAdmins {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return SuperAdmins{emails: set}
}

func (s SuperAdmins) Contains(email string) bool {
	_, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Emails returns the set in sorted order.
func (s SuperAdmins) Emails() []string {
	out := make([]string, 0, len(s.emails))
	for email := range s.emails {
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}

func (s SuperAdmins) Len() int {
	return len(s.emails)
}
