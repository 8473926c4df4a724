// Package config holds the bootstrap configuration of the emulator process:
// which durable backend to use and where, the record key, logging, the
// outbound event channel and the backup file watcher.
//
// Configuration is assembled from layers, each overriding the previous:
//
//  1. Built-in defaults (Default)
//  2. A TOML, YAML or JSON file
//  3. REFLEX_EMU_* environment variables
//  4. Command-line overrides
//
// These settings configure the process around the settings store. The
// emulator settings themselves live in the durable record managed by
// package configstore.
package config
