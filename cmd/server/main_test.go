package main

import (
	"testing"

	"comanda/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestWeakPINRolesFlagsDefaults(t *testing.T) {
	venue := config.Venue{PINs: map[string]string{
		"0001": "ADMIN",
		"7391": "MANAGER",
	}}
	roles := weakPINRoles(venue)
	if len(roles) != 1 || roles[0] != "ADMIN" {
		t.Fatalf("expected only ADMIN flagged, got %v", roles)
	}

	venue.PINs = map[string]string{"5555": "MANAGER"}
	if roles := weakPINRoles(venue); len(roles) != 1 {
		t.Fatalf("expected repeated digits flagged, got %v", roles)
	}
}
