// Package ports defines the interfaces between the engine core and its
// adapters. Consumers implement these to swap persistence backends without
// touching the runtime.
package ports
