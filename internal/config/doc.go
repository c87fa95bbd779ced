// Package config loads quire settings from TOML or YAML files and the
// environment.
//
// Settings are resolved in three steps, later ones winning:
//
//  1. Default values
//  2. The config file (config.toml, config.yaml or config.yml)
//  3. QUIRE_* environment variables
//
// A file looks like:
//
//	[editor]
//	undo_depth = 20
//	undo_block_timeout = "3s"
//	unknown_card = "placeholder"
//
//	[plugins]
//	dir = "~/.config/quire/plugins"
//	timeout = "500ms"
//
//	[logging]
//	level = "debug"
//	format = "json"
//
// Unknown keys are rejected. The resolved Config is turned into engine
// options, a plugin registry and a logger by the command that loads it.
package config
