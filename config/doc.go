// Package config loads scribe's TOML configuration.
//
// Load starts from Default, decodes the file when one exists, applies
// environment overrides, normalizes paths and finally validates. Every field
// has a usable default, so scribe runs without a config file against an
// embedded badger database under the data directory.
package config
