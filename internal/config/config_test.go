package config

import (
	"os"
	"path/filepath"
	"testing"

	"comanda/backend/internal/domain"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.KitchenExchange != "kitchen_topic" {
		t.Fatalf("unexpected default exchange %q", cfg.KitchenExchange)
	}
}

func TestDefaultVenueHonoursPINOverrides(t *testing.T) {
	t.Setenv("ADMIN_PIN", "4821")
	t.Setenv("MANAGER_PIN", "")

	roles := DefaultVenue().Roles()
	if roles["4821"] != domain.RoleAdmin {
		t.Fatalf("expected ADMIN_PIN override, got %+v", roles)
	}
	if roles["9999"] != domain.RoleManager {
		t.Fatalf("expected default manager PIN, got %+v", roles)
	}
}

func TestLoadVenueFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venue.yaml")
	content := `
name: Trattoria
tax_rate: 0.10
layout:
  - area: Bar
    first: 1
    tables: 5
pins:
  "1357": ADMIN
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	venue, err := LoadVenue(path)
	if err != nil {
		t.Fatalf("load venue: %v", err)
	}
	if venue.Name != "Trattoria" || venue.TaxRate != 0.10 || len(venue.Layout) != 1 {
		t.Fatalf("unexpected venue %+v", venue)
	}
	if venue.Roles()["1357"] != domain.RoleAdmin || len(venue.PINs) != 1 {
		t.Fatalf("unexpected pins %+v", venue.PINs)
	}
}

func TestLoadVenueHonoursZeroTaxRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venue.yaml")
	if err := os.WriteFile(path, []byte("tax_rate: 0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	venue, err := LoadVenue(path)
	if err != nil {
		t.Fatalf("load venue: %v", err)
	}
	if venue.TaxRate != 0 {
		t.Fatalf("expected tax exempt venue, got rate %v", venue.TaxRate)
	}

	if err := os.WriteFile(path, []byte("name: Omitted\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	venue, err = LoadVenue(path)
	if err != nil {
		t.Fatalf("load venue: %v", err)
	}
	if venue.TaxRate != 0.21 {
		t.Fatalf("omitted tax_rate must keep the default, got %v", venue.TaxRate)
	}
}

func TestLoadVenueRejectsBadPIN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venue.yaml")
	if err := os.WriteFile(path, []byte("pins:\n  \"12a4\": ADMIN\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadVenue(path); err == nil {
		t.Fatalf("expected non-numeric PIN to be rejected")
	}
}

func TestLoadVenueEmptyPathUsesDefaults(t *testing.T) {
	venue, err := LoadVenue("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if venue.TaxRate != 0.21 || len(venue.Layout) != 3 {
		t.Fatalf("unexpected defaults %+v", venue)
	}
}
