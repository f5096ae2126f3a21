// Package config manages the stacks project configuration.
//
// It handles:
//   - Loading <gitdir>/stacks/config.yml with defaults for missing values
//   - STACKS_* environment overrides
//   - Validation of the merged result
package config
