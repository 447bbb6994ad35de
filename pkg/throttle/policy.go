package throttle

import "strings"

// Policy selects how a Throttler treats calls made inside a window.
type Policy uint8

const (
	// PolicyLeadingTrailing runs the first call of a window immediately and
	// defers the latest of the following calls to the end of the window.
	PolicyLeadingTrailing Policy = iota
	// PolicyMaxCount runs up to max calls per window and drops the rest.
	PolicyMaxCount
	// PolicyCooldown runs a call, then drops every call until wait has passed.
	PolicyCooldown
)

var policyNames = map[Policy]string{
	PolicyLeadingTrailing: "leading-trailing",
	PolicyMaxCount:        "max-count",
	PolicyCooldown:        "cooldown",
}

// String returns the name used for the policy in configuration files.
func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// ParsePolicy returns the policy with the given name. Matching is case-insensitive.
func ParsePolicy(name string) (Policy, error) {
	for p, n := range policyNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return 0, &ConfigurationError{Field: "policy", Value: name, Reason: "unknown policy"}
}
