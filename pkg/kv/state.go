package kv

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/cuemby/mojokv/pkg/log"
)

// stateFields is the part of State that gets persisted. commitMu guards
// the commit critical section and is never serialized, mirroring the
// original's #[serde(skip)] commit lock field.
type stateFields struct {
	FormatVer    uint32
	MinVer       uint32
	MaxVer       uint32
	ActiveVer    uint32
	PPS          uint32
	PageSz       uint32
	FileHeaderLn uint32
	FilePageSz   uint32
}

// State is the store-wide singleton persisted at mojo.state on every
// commit.
type State struct {
	mu     sync.RWMutex
	fields stateFields

	// commitMu is held in write mode across the commit sequence, and in
	// read mode by bucket Put/Truncate/Sync so they can't race a commit
	// advancing the active version underneath them.
	commitMu sync.RWMutex
}

// NewState allocates a fresh State for a store being created for the
// first time.
func NewState(pageSz, pps uint32) *State {
	return &State{
		fields: stateFields{
			FormatVer:    1,
			MinVer:       1,
			MaxVer:       1,
			ActiveVer:    1,
			PPS:          pps,
			PageSz:       pageSz,
			FileHeaderLn: PageHeaderLen,
			FilePageSz:   pageSz + PageHeaderLen,
		},
	}
}

func (s *State) FormatVer() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.FormatVer
}

func (s *State) ActiveVer() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.ActiveVer
}

func (s *State) PageSize() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.PageSz
}

func (s *State) FilePageSz() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.FilePageSz
}

func (s *State) PPS() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.PPS
}

func (s *State) MinVer() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.MinVer
}

func (s *State) MaxVer() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.MaxVer
}

// AdvanceVer increments ActiveVer, bumps MaxVer to match, and returns the
// new active version.
func (s *State) AdvanceVer() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields.ActiveVer++
	if s.fields.ActiveVer > s.fields.MaxVer {
		s.fields.MaxVer = s.fields.ActiveVer
	}
	return s.fields.ActiveVer
}

// SerializeToPath encodes State with gob (a self-describing binary
// encoding so old decoders degrade gracefully against additive schema
// changes) and writes it to filepath.
func (s *State) SerializeToPath(filepath string) error {
	s.mu.RLock()
	fields := s.fields
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fields); err != nil {
		return fmt.Errorf("state: gob encode: %w", err)
	}
	return writeFile(filepath, buf.Bytes())
}

// DeserializeStateFromPath reads a State previously written by
// SerializeToPath.
func DeserializeStateFromPath(filepath string) (*State, error) {
	log.WithComponent("state").Debug().Str("store_path", filepath).Msg("loading state")

	buf, err := loadFile(filepath)
	if err != nil {
		return nil, err
	}

	var fields stateFields
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&fields); err != nil {
		return nil, fmt.Errorf("state: gob decode: %w", err)
	}

	return &State{fields: fields}, nil
}
