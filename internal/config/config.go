// Package config loads a Synchronizer's static setup — identity, adapter
// list, permission mode, heartbeat interval, log level — from YAML, the
// way the teacher's cmd/gossip loads its cluster.Configuration (same
// gopkg.in/yaml.v2 dependency, same flat top-level struct shape).
package config

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/jabolina/go-sync/internal/logging"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/permission"
)

// AdapterConfig describes one adapter to construct, dispatched on Kind.
// Fields not relevant to Kind are left zero.
type AdapterConfig struct {
	Kind string `yaml:"kind"` // "relt", "ws", "bolt"

	// relt / ws
	Cluster string   `yaml:"cluster,omitempty"`
	Peers   []string `yaml:"peers,omitempty"`
	Listen  string   `yaml:"listen,omitempty"`
	Dial    string   `yaml:"dial,omitempty"`

	// bolt
	Path string `yaml:"path,omitempty"`
}

// PermissionConfig is the declarative form of permission.Rules: func
// values can't round-trip through YAML, so the config names a mode
// instead and Rules translates it into closures.
type PermissionConfig struct {
	// Mode is "allow-all" (default) or "deny-prefix".
	Mode string `yaml:"mode"`

	// DenyPrefixes lists DocId prefixes that are invisible (and therefore
	// also immutable) to every peer, used only when Mode == "deny-prefix".
	DenyPrefixes []string `yaml:"deny_prefixes,omitempty"`
}

// Config is the top-level shape of a Synchronizer's YAML configuration
// file.
type Config struct {
	IdentityConfig struct {
		PeerId string `yaml:"peer_id"`
		Name   string `yaml:"name"`
		Kind   string `yaml:"kind"` // "user" or "service"
	} `yaml:"identity"`

	Adapters []AdapterConfig `yaml:"adapters"`

	Permission PermissionConfig `yaml:"permission"`

	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	LogLevel string `yaml:"log_level"`
}

// Load reads and parses a Config from path.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 20 * time.Second
	}
	if c.Permission.Mode == "" {
		c.Permission.Mode = "allow-all"
	}
	return &c, nil
}

// Identity builds the model.Identity this configuration describes.
func (c *Config) Identity() model.Identity {
	kind := model.IdentityUser
	if c.IdentityConfig.Kind == "service" {
		kind = model.IdentityService
	}
	return model.Identity{
		PeerId: model.PeerId(c.IdentityConfig.PeerId),
		Name:   c.IdentityConfig.Name,
		Kind:   kind,
	}
}

// Rules translates the declarative PermissionConfig into the predicate
// pair the dispatcher consumes.
func (c *Config) Rules() permission.Rules {
	if c.Permission.Mode != "deny-prefix" || len(c.Permission.DenyPrefixes) == 0 {
		return permission.AllowAll()
	}
	denied := func(docId model.DocId) bool {
		s := string(docId)
		for _, prefix := range c.Permission.DenyPrefixes {
			if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
				return true
			}
		}
		return false
	}
	return permission.Rules{
		Visibility: func(docId model.DocId, _ model.PeerId) bool { return !denied(docId) },
		Mutability: func(docId model.DocId, _ model.PeerId) bool { return !denied(docId) },
	}
}

// ApplyLogLevel maps the configured level name onto the logging package's
// default logger, toggling debug verbosity when requested.
func (c *Config) ApplyLogLevel(l *logging.FieldLogger) {
	l.ToggleDebug(c.LogLevel == "debug")
}
