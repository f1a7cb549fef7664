package kv

import (
	"fmt"
	"io"
	"os"
)

// pageMagic is the 4-byte magic prefixed to every on-disk page.
var pageMagic = [4]byte{'m', 'o', 'j', 'o'}

// PageHeaderLen is the fixed 8-byte framing prepended to every page:
// 4 bytes of magic, 4 bytes of little-endian block number.
const PageHeaderLen = 8

// PageFile is a single append-mostly POSIX file backing one (bucket,
// version) pair. Every record is [8-byte header][payload]; payload width
// is fixed per store (page_size bytes).
type PageFile struct {
	file    *os.File
	currOff uint64
}

// OpenPageFile opens (creating if absent) the data file at path and seeks
// to its end, establishing the append offset.
func OpenPageFile(path string) (*PageFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pagefile: open %s: %w", path, err)
	}

	off, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pagefile: seek end %s: %w", path, err)
	}

	return &PageFile{file: f, currOff: uint64(off)}, nil
}

func encodeHeader(blockNo uint32) [PageHeaderLen]byte {
	var buf [PageHeaderLen]byte
	copy(buf[0:4], pageMagic[:])
	buf[4] = byte(blockNo)
	buf[5] = byte(blockNo >> 8)
	buf[6] = byte(blockNo >> 16)
	buf[7] = byte(blockNo >> 24)
	return buf
}

// WriteAt writes a framed page at the given page-start byte offset: the
// 8-byte header always lands at off, and buf (which may be a partial
// intra-page write) lands at off+PageHeaderLen+poff. Failing on any short
// write.
func (pf *PageFile) WriteAt(off uint64, blockNo uint32, poff uint64, buf []byte) error {
	header := encodeHeader(blockNo)

	n, err := pf.file.WriteAt(header[:], int64(off))
	if err != nil {
		return fmt.Errorf("pagefile: write header: %w", err)
	}
	if n != PageHeaderLen {
		return fmt.Errorf("pagefile: short header write: wrote %d of %d", n, PageHeaderLen)
	}

	n, err = pf.file.WriteAt(buf, int64(off)+PageHeaderLen+int64(poff))
	if err != nil {
		return fmt.Errorf("pagefile: write payload: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("pagefile: short payload write: wrote %d of %d", n, len(buf))
	}

	return nil
}

// Append writes a framed page at the current append offset and advances
// that offset by exactly filePageSz, returning the pre-advance byte
// offset. poff is the intra-page offset the payload starts at within the
// newly reserved page; the offset always advances by a full page's worth
// regardless of len(buf)/poff, since every append reserves one whole page
// slot even when only part of it is written.
func (pf *PageFile) Append(blockNo uint32, poff uint64, buf []byte, filePageSz uint64) (uint64, error) {
	writeOff := pf.currOff
	if err := pf.WriteAt(writeOff, blockNo, poff, buf); err != nil {
		return 0, err
	}

	// Extend the file over the unwritten tail of a partial page, so that a
	// later OpenPageFile (which seeks to the file's end) resumes on a page
	// boundary.
	if PageHeaderLen+poff+uint64(len(buf)) < filePageSz {
		if err := pf.file.Truncate(int64(writeOff + filePageSz)); err != nil {
			return 0, fmt.Errorf("pagefile: extend to full page: %w", err)
		}
	}

	pf.currOff += filePageSz
	return writeOff, nil
}

// ReadAt reads into buf starting at off, looping until the buffer is full
// or EOF. A short read at EOF is reported via the returned count, not as
// an error, so callers can distinguish EOF from a real I/O failure.
func (pf *PageFile) ReadAt(off uint64, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := pf.file.ReadAt(buf[total:], int64(off)+int64(total))
		total += n
		if n == 0 || err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("pagefile: read at %d: %w", off, err)
		}
	}
	return total, nil
}

// Sync fsyncs the underlying file.
func (pf *PageFile) Sync() error {
	if err := pf.file.Sync(); err != nil {
		return fmt.Errorf("pagefile: sync: %w", err)
	}
	return nil
}

// Close releases the file handle.
func (pf *PageFile) Close() error {
	if err := pf.file.Close(); err != nil {
		return fmt.Errorf("pagefile: close: %w", err)
	}
	return nil
}
