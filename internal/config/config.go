// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads pdfbatch settings from viper into types.Config.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/pdfbatch/internal/container"
	"github.com/pdiddy/pdfbatch/internal/pipeline"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// PDFBATCH_PARSE_METHOD.
const EnvPrefix = "PDFBATCH"

// SetDefaults registers the default of every setting on v. Registering
// every key also lets environment variables override nested settings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("parse.method", string(types.MethodAuto))
	v.SetDefault("parse.inside_model", true)
	v.SetDefault("parse.drop_mode", string(pipeline.DropNone))
	v.SetDefault("parse.make_mode", string(pipeline.MakeMMMarkdown))
	v.SetDefault("parse.draw_layout_bbox", true)
	v.SetDefault("parse.draw_span_bbox", true)
	v.SetDefault("parse.dump_md", true)
	v.SetDefault("parse.dump_middle_json", true)
	v.SetDefault("parse.dump_model_json", true)
	v.SetDefault("parse.dump_orig_pdf", true)
	v.SetDefault("parse.dump_content_list", true)
	v.SetDefault("parse.dump_html", false)

	v.SetDefault("engine.backend", string(types.EngineLocal))
	v.SetDefault("engine.image", "")
	v.SetDefault("engine.runtime", "")
	v.SetDefault("engine.endpoint", "")
	v.SetDefault("engine.api_key", "")
	v.SetDefault("engine.timeout", "0s")
	v.SetDefault("engine.max_retries", 5)

	v.SetDefault("storage.backend", string(types.StorageDisk))
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")

	v.SetDefault("batch.workers", 1)
	v.SetDefault("batch.progress", false)

	v.SetDefault("ledger.path", "")
	v.SetDefault("log.level", "info")
}

// BindEnv makes v read PDFBATCH_* environment variables, mapping dots in
// keys to underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals and validates the settings held by v.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("%w: decoding settings: %w", types.ErrConfig, err)
	}
	if err := Validate(&cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings and normalises aliases in place.
// Every error wraps types.ErrConfig.
func Validate(cfg *types.Config) error {
	m, err := types.ParseMethod(string(cfg.Parse.Method))
	if err != nil {
		return fmt.Errorf("parse.method: %w", err)
	}
	cfg.Parse.Method = m

	drop, err := pipeline.ParseDropMode(cfg.Parse.DropMode)
	if err != nil {
		return fmt.Errorf("%w: parse.drop_mode: %w", types.ErrConfig, err)
	}
	cfg.Parse.DropMode = string(drop)

	mk, err := pipeline.ParseMakeMode(cfg.Parse.MakeMode)
	if err != nil {
		return fmt.Errorf("%w: parse.make_mode: %w", types.ErrConfig, err)
	}
	cfg.Parse.MakeMode = string(mk)

	switch cfg.Engine.Backend {
	case "":
		cfg.Engine.Backend = types.EngineLocal
	case types.EngineLocal, types.EngineContainer, types.EngineHTTP:
	default:
		return fmt.Errorf("%w: engine.backend %q: use 'local', 'container' or 'http'", types.ErrConfig, cfg.Engine.Backend)
	}
	switch cfg.Engine.Runtime = strings.ToLower(cfg.Engine.Runtime); cfg.Engine.Runtime {
	case "", container.Docker, container.Podman:
	default:
		return fmt.Errorf("%w: engine.runtime %q: use 'docker' or 'podman'", types.ErrConfig, cfg.Engine.Runtime)
	}
	if cfg.Engine.Timeout < 0 || cfg.Engine.MaxRetries < 0 {
		return fmt.Errorf("%w: engine.timeout and engine.max_retries must not be negative", types.ErrConfig)
	}

	switch cfg.Storage.Backend {
	case "":
		cfg.Storage.Backend = types.StorageDisk
	case types.StorageDisk, types.StorageS3:
	default:
		return fmt.Errorf("%w: storage.backend %q: use 'disk' or 's3'", types.ErrConfig, cfg.Storage.Backend)
	}

	if cfg.Batch.Workers < 1 {
		return fmt.Errorf("%w: batch.workers must be at least 1, got %d", types.ErrConfig, cfg.Batch.Workers)
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log.level value to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q: use debug, info, warn or error", types.ErrConfig, s)
	}
	return l, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func NewLogger(cfg types.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
