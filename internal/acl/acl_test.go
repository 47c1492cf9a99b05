package acl

import (
	"testing"

	"github.com/m17-go/m17/pkg/address"
)

func TestParse_Simple(t *testing.T) {
	tests := []struct {
		name     string
		rule     string
		wantErr  bool
		action   Action
		numRules int
	}{
		{name: "Permit all", rule: "PERMIT:ALL", action: Permit, numRules: 1},
		{name: "Deny all", rule: "DENY:ALL", action: Deny, numRules: 1},
		{name: "Permit single callsign", rule: "PERMIT:W2FBI", action: Permit, numRules: 1},
		{name: "Deny single callsign", rule: "DENY:SP5WWP", action: Deny, numRules: 1},
		{name: "Permit range", rule: "PERMIT:AAAAA-ZZZZZ", action: Permit, numRules: 1},
		{name: "Deny multiple", rule: "DENY:W2FBI,AAAAA-ZZZZZ,SP5WWP", action: Deny, numRules: 3},
		{name: "Invalid format no colon", rule: "PERMIT_ALL", wantErr: true},
		{name: "Invalid action", rule: "ALLOW:ALL", wantErr: true},
		{name: "Empty rule", rule: "", wantErr: true},
		{name: "Invalid callsign", rule: "PERMIT:not a callsign", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.rule)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Action != tt.action {
				t.Errorf("expected action %v, got %v", tt.action, got.Action)
			}
			if len(got.Rules) != tt.numRules {
				t.Errorf("expected %d rules, got %d", tt.numRules, len(got.Rules))
			}
		})
	}
}

func TestACL_Check_SingleCallsign(t *testing.T) {
	w2fbi, err := address.Encode("W2FBI")
	if err != nil {
		t.Fatal(err)
	}
	sp5wwp, err := address.Encode("SP5WWP")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		rule     string
		addr     address.Address
		expected bool
	}{
		{name: "Permit all - allow callsign", rule: "PERMIT:ALL", addr: w2fbi, expected: true},
		{name: "Deny all - deny callsign", rule: "DENY:ALL", addr: w2fbi, expected: false},
		{name: "Permit specific - allow match", rule: "PERMIT:W2FBI", addr: w2fbi, expected: true},
		{name: "Permit specific - deny non-match", rule: "PERMIT:W2FBI", addr: sp5wwp, expected: false},
		{name: "Deny specific - deny match", rule: "DENY:W2FBI", addr: w2fbi, expected: false},
		{name: "Deny specific - allow non-match", rule: "DENY:W2FBI", addr: sp5wwp, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acl, err := Parse(tt.rule)
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			if got := acl.Check(tt.addr); got != tt.expected {
				t.Errorf("Check() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestACL_Check_Range(t *testing.T) {
	acl, err := Parse("PERMIT:AAAAA-ZZZZZ")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	inRange, err := address.Encode("W2FBI")
	if err != nil {
		t.Fatal(err)
	}
	if !acl.Check(inRange) {
		t.Error("expected W2FBI to fall within AAAAA-ZZZZZ range")
	}
}
