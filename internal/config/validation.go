package config

import (
	"fmt"
	"strings"

	"github.com/m17-go/m17/pkg/address"
)

func validate(cfg *Config) error {
	if cfg.Web.Enabled {
		if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
			return fmt.Errorf("web.port must be between 1 and 65535")
		}
	}

	if cfg.Server.Callsign != "" {
		if _, err := address.Encode(cfg.Server.Callsign); err != nil {
			return fmt.Errorf("server.callsign %q is invalid: %w", cfg.Server.Callsign, err)
		}
	}

	for name, refl := range cfg.Reflectors {
		if !refl.Enabled {
			continue
		}
		if refl.Host == "" {
			return fmt.Errorf("reflector %s: host is required", name)
		}
		if refl.Port <= 0 || refl.Port > 65535 {
			return fmt.Errorf("reflector %s: port must be between 1 and 65535", name)
		}
		if len(refl.Module) != 1 || refl.Module[0] < 'A' || refl.Module[0] > 'Z' {
			return fmt.Errorf("reflector %s: module must be a single uppercase letter", name)
		}
		if refl.UseACL && refl.RegACL != "" {
			if err := validateACLRule(refl.RegACL); err != nil {
				return fmt.Errorf("reflector %s: %w", name, err)
			}
		}
	}

	if cfg.ACL.Enabled && cfg.ACL.Rule != "" {
		if err := validateACLRule(cfg.ACL.Rule); err != nil {
			return fmt.Errorf("acl: %w", err)
		}
	}

	for bridgeName, rules := range cfg.Bridges {
		for i, rule := range rules {
			if rule.Reflector == "" {
				return fmt.Errorf("bridge %s rule %d: reflector is required", bridgeName, i)
			}
			if _, exists := cfg.Reflectors[rule.Reflector]; !exists {
				return fmt.Errorf("bridge %s rule %d: reflector %s not found", bridgeName, i, rule.Reflector)
			}
			if len(rule.Module) != 1 {
				return fmt.Errorf("bridge %s rule %d: module must be a single letter", bridgeName, i)
			}
		}
	}

	if cfg.Events.Enabled && cfg.Events.Broker == "" {
		return fmt.Errorf("events.broker is required when events are enabled")
	}

	return nil
}

func validateACLRule(rule string) error {
	if !strings.HasPrefix(rule, "PERMIT:") && !strings.HasPrefix(rule, "DENY:") {
		return fmt.Errorf("ACL rule %q must start with PERMIT: or DENY:", rule)
	}
	return nil
}
