/*
Package kv implements mojokv's core storage engine: a versioned,
page-oriented key-value store organized into named buckets, each modeling
one dense integer-keyed logical file.

# Architecture

	┌────────────────────────── STORE ──────────────────────────┐
	│                                                              │
	│  mojo.init, mojo.state, mojo.bmap.{v}, mojo.lock            │
	│                                                              │
	│  ┌────────────────────────────────────────────┐            │
	│  │                 BucketMap                    │            │
	│  │   name -> index version                      │            │
	│  └──────────────────┬───────────────────────────┘            │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐            │
	│  │                  Bucket                       │            │
	│  │                                                │            │
	│  │   ┌────────────┐       ┌───────────────────┐ │            │
	│  │   │   Index    │       │   version -> *PageFile│         │
	│  │   │ (KeyMap +  │       │   {name}_d.{ver}    │ │          │
	│  │   │  header)   │       └───────────────────┘ │            │
	│  │   └────────────┘                              │            │
	│  │   {name}_i.{ver}: zstd(gob(Index))            │            │
	│  └────────────────────────────────────────────────┘            │
	└──────────────────────────────────────────────────────────────┘

Writes land in the active version's PageFile via copy-on-write: a page
touched for the first time in a version is appended; a page already owned
by the active version is overwritten in place. Older versions' PageFiles
are opened read/write like the active one, but only the active version's
file is ever written to, which is what makes readonly snapshots at prior
versions stable while a writer continues.

A commit is the only operation that crosses bucket boundaries: it takes
the store's in-process exclusive lock, acquires the pid-tagged `mojo.lock`
OS file lock, advances `State.ActiveVer`, and persists `mojo.state` and
`mojo.bmap.{new_ver}`. Per-bucket indexes are persisted independently by
`Bucket.Sync`, which callers invoke before commit.

See pkg/shim for the block-device adapter built on top of this package,
and cmd/mojokv for the CLI built on top of both.
*/
package kv
