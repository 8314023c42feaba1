// Package featureflags evaluates per-user feature toggles configured as a
// comma-separated list, e.g. "community_feed=on,similar_users=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"
)

// Flags known to the service.
const (
	// CommunityFeed gates the community timeline mode.
	CommunityFeed = "community_feed"
)

// defaults apply when the configuration does not mention a flag.
var defaults = map[string]string{
	CommunityFeed: "on",
}

// rule is a parsed flag value: a percentage of users from 0 to 100.
type rule struct {
	raw     string
	percent int
}

// Manager evaluates feature flags. A nil Manager reports every flag as off.
type Manager struct {
	rules map[string]rule
}

// NewManager parses raw on top of the built-in defaults. Malformed entries
// are skipped with a warning.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule)}
	for name, value := range defaults {
		r, _ := parseRule(value)
		m.rules[name] = r
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		name, value = normalize(name), normalize(value)
		if !ok || name == "" || value == "" {
			slog.Warn("ignoring malformed feature flag", slog.String("entry", pair))
			continue
		}
		r, err := parseRule(value)
		if err != nil {
			slog.Warn("ignoring feature flag", slog.String("flag", name), slog.Any("error", err))
			continue
		}
		m.rules[name] = r
	}
	return m
}

func parseRule(value string) (rule, error) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, percent: 100}, nil
	case "off", "false", "0":
		return rule{raw: value, percent: 0}, nil
	}
	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return rule{}, fmt.Errorf("unsupported value %q", value)
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return rule{}, fmt.Errorf("invalid percentage %q", value)
	}
	return rule{raw: value, percent: min(max(pct, 0), 100)}, nil
}

// Enabled returns whether a flag is on for the user. Partial rollouts bucket
// users deterministically and never include the anonymous user 0.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}
	switch {
	case r.percent <= 0:
		return false
	case r.percent >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
