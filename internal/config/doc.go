// Package config implements configuration loading for the Call Relay
// Container.
//
// Values are resolved in three layers: compiled defaults, CRC_* environment
// overrides, and an optional YAML file (config.yaml) whose non-zero values
// win. The merged result is validated before use.
package config
