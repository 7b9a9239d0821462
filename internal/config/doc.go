// Package config loads and merges aidebug configuration from multiple
// sources with viper.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (AIDEBUG_PROVIDER, AIDEBUG_MODEL,
//     AIDEBUG_CACHE_KEYING, ...; nested keys join with an underscore)
//  3. Config file ($XDG_CONFIG_HOME/aidebug/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file and
// [SetField] to update a single key.
package config
