// Package utils holds small helpers shared by the engine and the CLI.
package utils
