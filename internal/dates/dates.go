// Package dates converts between the three date representations in play:
// MM/DD/YYYY (the SoW template), DD/MM/YYYY (the dashboard form) and
// YYYY-MM-DD (canonical, used by the tracker and all comparisons).
package dates

import (
	"strings"
	"time"
)

const canonicalLayout = "2006-01-02"

// FromUS converts an MM/DD/YYYY string to YYYY-MM-DD. A value that does
// not split into exactly three fields yields "" rather than an error;
// documents missing or mangling a date degrade silently.
func FromUS(s string) string {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return ""
	}
	return pad4(parts[2]) + "-" + pad2(parts[0]) + "-" + pad2(parts[1])
}

// FromEU converts a DD/MM/YYYY string to YYYY-MM-DD, with the same
// soft-fail contract as FromUS.
func FromEU(s string) string {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return ""
	}
	return pad4(parts[2]) + "-" + pad2(parts[1]) + "-" + pad2(parts[0])
}

// ToUS renders a canonical YYYY-MM-DD string in the dashboard's
// MM/DD/YYYY format. Non-canonical input comes back unchanged.
func ToUS(s string) string {
	t, err := time.Parse(canonicalLayout, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("01/02/2006")
}

// Normalize maps any supported representation to YYYY-MM-DD. It is
// idempotent and never fails: canonical input (including an ISO datetime
// prefix, which the tracker emits for project dates) is truncated to its
// date part, slash input is read as MM/DD/YYYY, and anything else is
// returned unchanged.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	if t, err := time.Parse(canonicalLayout, s); err == nil {
		return t.Format(canonicalLayout)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(canonicalLayout)
	}
	if strings.Count(s, "/") == 2 {
		if v := FromUS(s); v != "" {
			if _, err := time.Parse(canonicalLayout, v); err == nil {
				return v
			}
		}
	}
	return s
}

// Parse interprets a canonical date string as midnight UTC. ok is false
// when the value is empty or not canonical.
func Parse(s string) (time.Time, bool) {
	t, err := time.Parse(canonicalLayout, Normalize(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func pad4(s string) string {
	s = strings.TrimSpace(s)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
