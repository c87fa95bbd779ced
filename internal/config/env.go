package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "QUIRE_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from QUIRE_* variables found by lookup.
// A nil lookup uses os.LookupEnv. The result is validated.
//
//	QUIRE_UNDO_DEPTH          editor.undo_depth
//	QUIRE_UNDO_BLOCK_TIMEOUT  editor.undo_block_timeout
//	QUIRE_FORMAT              editor.format
//	QUIRE_PLUGIN_DIR          plugins.dir
//	QUIRE_PLUGIN_TIMEOUT      plugins.timeout
//	QUIRE_LOG_LEVEL           logging.level
//	QUIRE_LOG_FORMAT          logging.format
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) (string, bool) {
		return lookup(EnvPrefix + name)
	}

	if v, ok := get("UNDO_DEPTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sUNDO_DEPTH: %w", EnvPrefix, err)
		}
		c.Editor.UndoDepth = n
	}
	if v, ok := get("UNDO_BLOCK_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sUNDO_BLOCK_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Editor.UndoBlockTimeout = Duration(d)
	}
	if v, ok := get("FORMAT"); ok {
		c.Editor.Format = v
	}
	if v, ok := get("PLUGIN_DIR"); ok {
		c.Plugins.Dir = v
	}
	if v, ok := get("PLUGIN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPLUGIN_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Plugins.Timeout = Duration(d)
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	return c.Validate()
}
