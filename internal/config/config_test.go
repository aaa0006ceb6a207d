package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jabolina/go-sync/internal/model"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
identity:
  peer_id: peer-a
  name: Alice
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HeartbeatInterval == 0 {
		t.Fatalf("expected a default heartbeat interval to be applied")
	}
	if c.Permission.Mode != "allow-all" {
		t.Fatalf("expected default permission mode allow-all, got %q", c.Permission.Mode)
	}
}

func TestLoadIdentity(t *testing.T) {
	path := writeConfig(t, `
identity:
  peer_id: peer-a
  name: Alice
  kind: service
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	id := c.Identity()
	if id.PeerId != model.PeerId("peer-a") || id.Name != "Alice" || id.Kind != model.IdentityService {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestLoadAdapters(t *testing.T) {
	path := writeConfig(t, `
identity:
  peer_id: peer-a
adapters:
  - kind: bolt
    path: /tmp/doc.db
  - kind: relt
    cluster: my-group
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Adapters) != 2 {
		t.Fatalf("expected 2 adapters, got %d", len(c.Adapters))
	}
	if c.Adapters[0].Kind != "bolt" || c.Adapters[0].Path != "/tmp/doc.db" {
		t.Fatalf("unexpected first adapter: %+v", c.Adapters[0])
	}
	if c.Adapters[1].Kind != "relt" || c.Adapters[1].Cluster != "my-group" {
		t.Fatalf("unexpected second adapter: %+v", c.Adapters[1])
	}
}

func TestRulesDenyPrefix(t *testing.T) {
	path := writeConfig(t, `
identity:
  peer_id: peer-a
permission:
  mode: deny-prefix
  deny_prefixes:
    - "secret-"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rules := c.Rules()
	if rules.Visible("secret-doc", "peer-b") {
		t.Fatalf("expected secret-prefixed documents to be hidden")
	}
	if !rules.Visible("public-doc", "peer-b") {
		t.Fatalf("expected non-matching documents to remain visible")
	}
	if rules.Mutable("secret-doc", "peer-b") {
		t.Fatalf("expected secret-prefixed documents to be immutable too")
	}
}

func TestRulesAllowAllWhenNoDenyPrefixes(t *testing.T) {
	path := writeConfig(t, `
identity:
  peer_id: peer-a
permission:
  mode: deny-prefix
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rules := c.Rules()
	if !rules.Visible("anything", "peer-b") {
		t.Fatalf("expected allow-all behavior when deny_prefixes is empty")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
