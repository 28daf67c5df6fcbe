// Package config defines the on-disk configuration record for an embedder
// wiring up the store, executor and retention worker, loaded via
// gopkg.in/yaml.v3.
package config
