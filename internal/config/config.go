// Package config holds the operator-supplied sync configuration. The
// config lives in the kv store under one key and is read fresh before
// every sync attempt, so edits made through any surface take effect on
// the next call without a restart.
package config

import (
	"context"
	"encoding/json"

	"github.com/jessemcnew/glippy/internal/errors"
	"github.com/jessemcnew/glippy/internal/kv"
)

// Key is the kv key the configuration is stored under.
const Key = "glean_config"

// Token types accepted by the Client API.
const (
	TokenTypeGleanIssued = "glean-issued"
	TokenTypeOAuth       = "oauth"
)

// Defaults applied on load when the stored config omits a field.
const (
	DefaultDomain     = "app.glean.com"
	DefaultDatasource = "WEBCLIPPER"
)

// SyncConfig is the operator-supplied configuration for remote sync.
// The Collections and Indexing tokens are independent credentials;
// either backend is silently skipped when its fields are absent.
type SyncConfig struct {
	Enabled         bool   `json:"enabled"`
	Domain          string `json:"domain"`
	APIToken        string `json:"api_token"`
	TokenType       string `json:"token_type"`
	CollectionID    string `json:"collection_id"`
	CollectionName  string `json:"collection_name,omitempty"`
	IndexingEnabled bool   `json:"indexing_enabled"`
	IndexingToken   string `json:"indexing_token"`
	Datasource      string `json:"datasource"`
}

// Default returns the configuration used when nothing is stored:
// sync disabled, well-known app domain, webclipper datasource.
func Default() *SyncConfig {
	return &SyncConfig{
		Domain:     DefaultDomain,
		TokenType:  TokenTypeGleanIssued,
		Datasource: DefaultDatasource,
	}
}

// CollectionsReady reports whether the Collections backend has every
// required field for a sync attempt.
func (c *SyncConfig) CollectionsReady() bool {
	return c.Enabled && c.APIToken != "" && c.CollectionID != ""
}

// IndexingReady reports whether the Indexing backend has every
// required field for a sync attempt.
func (c *SyncConfig) IndexingReady() bool {
	return c.IndexingEnabled && c.IndexingToken != ""
}

// Redacted returns a copy safe for diagnostic output: tokens are
// truncated to a preview, never logged in full.
func (c *SyncConfig) Redacted() map[string]any {
	return map[string]any{
		"enabled":          c.Enabled,
		"domain":           c.Domain,
		"api_token":        TokenPreview(c.APIToken),
		"token_type":       c.TokenType,
		"collection_id":    c.CollectionID,
		"collection_name":  c.CollectionName,
		"indexing_enabled": c.IndexingEnabled,
		"indexing_token":   TokenPreview(c.IndexingToken),
		"datasource":       c.Datasource,
	}
}

// TokenPreview truncates a token for diagnostics: first 8 and last 4
// characters, or a fixed marker for short/absent tokens.
func TokenPreview(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "..."
	}
	return token[:8] + "..." + token[len(token)-4:]
}

// Loader reads the current configuration. Implementations must read
// fresh state on every call; callers never cache the result beyond a
// single sync attempt.
type Loader interface {
	Load(ctx context.Context) (*SyncConfig, error)
}

// KVLoader loads configuration from the kv store.
type KVLoader struct {
	kv *kv.Store
}

// NewKVLoader creates a loader backed by the given kv store.
func NewKVLoader(db *kv.Store) *KVLoader {
	return &KVLoader{kv: db}
}

// Load reads the stored configuration and applies defaults for absent
// fields. A missing key yields the default (disabled) config.
func (l *KVLoader) Load(ctx context.Context) (*SyncConfig, error) {
	values, err := l.kv.Get(ctx, Key)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	cfg := Default()
	raw, ok := values[Key]
	if !ok || len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, errors.NewInternal(err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Save persists the configuration to the kv store.
func Save(ctx context.Context, db *kv.Store, cfg *SyncConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := db.Set(ctx, map[string][]byte{Key: raw}); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func applyDefaults(cfg *SyncConfig) {
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if cfg.TokenType == "" {
		cfg.TokenType = TokenTypeGleanIssued
	}
	if cfg.Datasource == "" {
		cfg.Datasource = DefaultDatasource
	}
}

// Watch subscribes to the kv change feed and invokes onChange with the
// parsed configuration whenever another surface rewrites it. Long-lived
// surfaces use it to notice out-of-band edits. The returned stop
// function ends the watch.
func Watch(db *kv.Store, onChange func(*SyncConfig)) (stop func()) {
	ch := db.Subscribe()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case change, open := <-ch:
				if !open {
					return
				}
				if change.Key != Key || change.New == nil {
					continue
				}
				var cfg SyncConfig
				if err := json.Unmarshal(change.New, &cfg); err != nil {
					continue
				}
				applyDefaults(&cfg)
				onChange(&cfg)
			case <-done:
				db.Unsubscribe(ch)
				return
			}
		}
	}()
	return func() { close(done) }
}

// StaticLoader returns a fixed configuration; used by tests to
// substitute configuration without touching the kv store.
type StaticLoader struct {
	Config *SyncConfig
}

// Load returns a copy of the static configuration.
func (l *StaticLoader) Load(ctx context.Context) (*SyncConfig, error) {
	cfg := *l.Config
	return &cfg, nil
}
