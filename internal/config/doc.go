// Package config loads quire's settings.
//
// Settings are layered, with later layers overriding earlier ones:
//
//  1. built-in defaults
//  2. the configuration file (TOML or YAML, chosen by extension)
//  3. QUIRE_* environment variables
//  4. overrides set by the caller, such as command-line flags
//
// Environment variables map to dotted paths by splitting the section at
// the first underscore: QUIRE_HISTORY_MAX_ENTRIES sets history.max_entries.
//
// A TOML file may pull in other files with a top-level "@include" key.
//
// Example file:
//
//	[logging]
//	level = "debug"
//
//	[script]
//	paths = ["~/.config/quire/scripts"]
//	timeout = "500ms"
//
//	[[kinds]]
//	name = "callout"
//	tags = ["aside"]
//	container = true
//	breakable = true
//
// Section accessors (Logging, History, Dispatcher, Script) never fail.
// A value of the wrong type falls back to the default and is recorded;
// Validate reports every such error at once.
package config
