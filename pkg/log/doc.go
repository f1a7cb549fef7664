/*
Package log provides structured logging for mojokv using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers and configurable log levels. All logs
include timestamps and support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("store")                   │          │
	│  │  - WithStore("store", path, instanceID)     │          │
	│  │  - WithBucket("bucket", "accounts", 7)      │          │
	│  │  - WithVersion("iview", 7)                  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "debug",                        │          │
	│  │    "component": "bucket",                   │          │
	│  │    "bucket": "accounts",                    │          │
	│  │    "ver": 7,                                 │          │
	│  │    "time": "2026-07-31T10:30:00Z",         │          │
	│  │    "message": "put committed"               │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30AM DBG put committed component=bucket bucket=accounts ver=7 │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all mojokv packages

Log Levels:
  - Debug: bucket open/load/create, put/get, sync, commit, lock acquisition
  - Info: the address the metrics-serve command listens on
  - Warn, Error, Fatal: not emitted by pkg/kv or pkg/shim, which return
    errors to their caller; cmd/mojokv prints a failed command's error to
    stderr and exits non-zero

Configuration:
  - Level: filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: add a component name ("store", "bucket", "bmap", "shim")
  - WithStore: add the store's root path and per-handle instance id
  - WithBucket: add the bucket name and the version its handle is pinned to
  - WithVersion: add the version a snapshot read is addressed at

# Usage

Initializing the Logger:

	import "github.com/cuemby/mojokv/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Structured Logging:

	log.Logger.Debug().
		Str("bucket", "accounts").
		Uint32("ver", 7).
		Msg("put committed")

Component Loggers:

	bucketLog := log.WithComponent("bucket").With().Str("bucket", name).Logger()
	bucketLog.Debug().Msg("sync: closing stale version files")

Context Logger Helpers:

	storeLog := log.WithStore("store", rootPath, instanceID)
	storeLog.Debug().Msg("committing store")

	verLog := log.WithVersion("iview", ver)
	verLog.Debug().Str("bucket", name).Msg("loading index at version")

# Integration Points

This package integrates with:

  - pkg/kv: logs store/bucket/index lifecycle events
  - pkg/shim: logs block-device adapter pread/pwrite/truncate calls
  - cmd/mojokv: logs CLI subcommand execution

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance, initialized once at process start

Context Logger Pattern:
  - Derive child loggers carrying store path, bucket name, or version so
    call sites don't repeat the same fields on every log line

# Best Practices

Do:
  - Use Info level for production
  - Use WithBucket/WithVersion instead of string-formatting context into
    the message
  - Log errors with .Err() for consistent formatting

Don't:
  - Log full key/value payloads (may be large or sensitive)
  - Use Debug level in production for high-throughput stores

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
