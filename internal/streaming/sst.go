package streaming

import (
	"bufio"
	"io"
	"os"

	"github.com/google/uuid"
)

// sstBuilder deduplicates text values seen during phase 1 into a
// shared-strings table, spilling to disk under SSTOnDisk so resident string
// bytes stay bounded by distinct-string count rather than also holding a
// growing slice (spec.md §4.11's "SST is also spilled" OnDisk behavior,
// recorded as an Open Question resolution in DESIGN.md).
type sstBuilder struct {
	mode  SharedStringsMode
	index map[string]uint32
	count uint32

	inMemory []string

	spillFile *os.File
	spillW    *bufio.Writer
}

func newSSTBuilder(mode SharedStringsMode, tempDir string) (*sstBuilder, error) {
	b := &sstBuilder{mode: mode, index: map[string]uint32{}}
	if mode == SSTOnDisk {
		// A uuid-qualified pattern keeps concurrent Write calls sharing tempDir
		// from ever racing on CreateTemp's own collision-retry loop.
		f, err := os.CreateTemp(tempDir, "xlpatch-sst-"+uuid.NewString()+"-*.spool")
		if err != nil {
			return nil, err
		}
		b.spillFile = f
		b.spillW = bufio.NewWriter(f)
	}
	return b, nil
}

// intern returns s's shared-string index, assigning a new one on first
// sight. Safe to call even under SSTNone (the caller simply never does, per
// encodeText's mode check), so WorkbookSpec inputs never need to branch on
// mode themselves.
func (b *sstBuilder) intern(s string) uint32 {
	if idx, ok := b.index[s]; ok {
		return idx
	}
	idx := b.count
	b.count++
	b.index[s] = idx
	switch b.mode {
	case SSTInMemory:
		b.inMemory = append(b.inMemory, s)
	case SSTOnDisk:
		writeUvarint(b.spillW, uint64(len(s)))
		b.spillW.WriteString(s)
	}
	return idx
}

// finalize flushes any spill file and prepares the builder for the
// each(visit) replay pass phase 2 uses to emit xl/sharedStrings.xml.
func (b *sstBuilder) finalize() error {
	if b.spillW != nil {
		if err := b.spillW.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// close releases the spill file, if any. Safe to call multiple times.
func (b *sstBuilder) close() {
	if b.spillFile != nil {
		name := b.spillFile.Name()
		b.spillFile.Close()
		os.Remove(name)
		b.spillFile = nil
	}
}

// each replays every interned string, in assigned-index order, to visit.
func (b *sstBuilder) each(visit func(s string) error) error {
	switch b.mode {
	case SSTOnDisk:
		if b.spillFile == nil {
			return nil
		}
		if _, err := b.spillFile.Seek(0, io.SeekStart); err != nil {
			return err
		}
		r := bufio.NewReader(b.spillFile)
		for i := uint32(0); i < b.count; i++ {
			n, err := readUvarint(r)
			if err != nil {
				return err
			}
			buf := make([]byte, n)
			if _, err := io.ReadFull(r, buf); err != nil {
				return err
			}
			if err := visit(string(buf)); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, s := range b.inMemory {
			if err := visit(s); err != nil {
				return err
			}
		}
		return nil
	}
}
