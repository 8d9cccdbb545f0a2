package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLandingURL(t *testing.T) {
	empty := t.TempDir()
	tenants := t.TempDir()
	for _, dir := range []string{".git", "beta", "acme"} {
		if err := os.Mkdir(filepath.Join(tenants, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(tenants, "aaa.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		addr    string
		client  string
		dataDir string
		want    string
	}{
		{"ExplicitClient", ":8080", "acme farms", empty, "http://localhost:8080/api/packhouse/temporal?client=acme+farms"},
		{"FirstTenant", "127.0.0.1:9000", "", tenants, "http://127.0.0.1:9000/api/packhouse/temporal?client=acme"},
		{"NoTenants", ":8080", "", empty, "http://localhost:8080/metrics"},
		{"MissingDataDir", ":8080", "", filepath.Join(empty, "missing"), "http://localhost:8080/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := landingURL(tt.addr, tt.client, tt.dataDir); got != tt.want {
				t.Errorf("landingURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
