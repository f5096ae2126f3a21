// Package runtime provides the execution context for stacks commands.
//
// It encapsulates shared dependencies and configuration needed by commands,
// such as the engine instance, logger, and repository root path.
package runtime
