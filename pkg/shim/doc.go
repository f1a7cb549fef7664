// Package shim implements the block-device adapter contract that lets an
// external host — an embedded SQL engine's virtual-file-system hook table,
// in the original design — drive pkg/kv through byte-offset pread/pwrite
// instead of page-keyed get/put.
//
//	           byte-offset I/O                 page-keyed I/O
//	   host  ───────────────────►  BlockFile  ───────────────────►  kv.Bucket
//	         Pread(buf, off)                   Get(key, pageOff, buf)
//	         Pwrite(off, buf)                  Put(key, pageOff, buf)
//
// A BlockFile owns no state pkg/kv doesn't already have; it only translates
// addressing. Pread serves at most one page per call (the hosts this
// adapter targets read page-at-a-time), zero-filling any page the core
// reports as KeyNotFound — the caller on the other side of this shim has no
// concept of a sparse hole, only of a byte stream. Pwrite splits a byte
// range at page boundaries and loops Bucket.Put per page slice.
// FileSize reports page_size*(max_key+1): the logical extent of
// the bucket, independent of how sparse its key space actually is.
//
// ParseOptions decodes the host's string-keyed parameter map (the form a
// VFS registration hook typically hands an adapter) into an Options value;
// pagesz is mandatory when creating a store, ver and pps fall back to
// documented defaults.
package shim
