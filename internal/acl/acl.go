// Package acl implements callsign-based permit/deny access control for
// reflector connections and bridge routing, adapted from the
// numeric-ID ACL rule grammar of a DMR peer registry to M17's base-40
// callsign addressing.
package acl

import (
	"fmt"
	"strings"

	"github.com/m17-go/m17/pkg/address"
)

// Action is whether a rule set permits or denies by default.
type Action int

const (
	Permit Action = iota
	Deny
)

// String returns the rule-grammar keyword for the action.
func (a Action) String() string {
	switch a {
	case Permit:
		return "PERMIT"
	case Deny:
		return "DENY"
	default:
		return "UNKNOWN"
	}
}

// RuleType names the shape of a single rule entry.
type RuleType int

const (
	RuleAll RuleType = iota
	RuleCallsign
	RuleRange
)

// Rule matches one callsign, every callsign, or a range of encoded
// address values.
type Rule struct {
	Type     RuleType
	Callsign address.Address
	Start    address.Address
	End      address.Address
}

// Matches reports whether addr satisfies this rule.
func (r Rule) Matches(addr address.Address) bool {
	switch r.Type {
	case RuleAll:
		return true
	case RuleCallsign:
		return r.Callsign == addr
	case RuleRange:
		return addr >= r.Start && addr <= r.End
	default:
		return false
	}
}

// ACL is an ordered action plus a set of matching rules.
type ACL struct {
	Action Action
	Rules  []Rule
}

// Check reports whether addr is allowed: for PERMIT, allowed only if
// some rule matches; for DENY, allowed only if no rule matches.
func (a *ACL) Check(addr address.Address) bool {
	matches := false
	for _, rule := range a.Rules {
		if rule.Matches(addr) {
			matches = true
			break
		}
	}
	if a.Action == Permit {
		return matches
	}
	return !matches
}

// Parse parses an ACL rule string of the form
// "ACTION:ENTRY[,ENTRY]...", where ENTRY is ALL, a single callsign, or
// a callsign-callsign range ordered by encoded address value.
// Examples: "PERMIT:ALL", "DENY:W2FBI", "PERMIT:W2FBI,SP5WWP".
func Parse(rule string) (*ACL, error) {
	if rule == "" {
		return nil, fmt.Errorf("empty ACL rule")
	}

	parts := strings.SplitN(rule, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid ACL format: missing colon")
	}

	var action Action
	switch strings.ToUpper(parts[0]) {
	case "PERMIT":
		action = Permit
	case "DENY":
		action = Deny
	default:
		return nil, fmt.Errorf("invalid ACL action: %s", parts[0])
	}

	acl := &ACL{Action: action}

	for _, entry := range strings.Split(parts[1], ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.ToUpper(entry) == "ALL" {
			acl.Rules = append(acl.Rules, Rule{Type: RuleAll})
			continue
		}

		if strings.Contains(entry, "-") {
			bounds := strings.SplitN(entry, "-", 2)
			if len(bounds) != 2 {
				return nil, fmt.Errorf("invalid range format: %s", entry)
			}
			start, err := address.Encode(strings.TrimSpace(bounds[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid range start %q: %w", bounds[0], err)
			}
			end, err := address.Encode(strings.TrimSpace(bounds[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid range end %q: %w", bounds[1], err)
			}
			if start > end {
				return nil, fmt.Errorf("invalid range: start (%s) > end (%s)", bounds[0], bounds[1])
			}
			acl.Rules = append(acl.Rules, Rule{Type: RuleRange, Start: start, End: end})
			continue
		}

		addr, err := address.Encode(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid callsign %q: %w", entry, err)
		}
		acl.Rules = append(acl.Rules, Rule{Type: RuleCallsign, Callsign: addr})
	}

	if len(acl.Rules) == 0 {
		return nil, fmt.Errorf("no rules specified")
	}

	return acl, nil
}
