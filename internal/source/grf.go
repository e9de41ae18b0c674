package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/korean"
)

// GRF archive layout constants.
const (
	grfMagic      = "Master of Magic"
	grfVersion    = 0x200
	grfHeaderSize = 46

	grfFlagFile      = 0x01
	grfFlagEncrypted = 0x06
)

// ArchiveSeparator splits an archive path from the entry inside it, as in
// "data.grf#data/model/house.rsm".
const ArchiveSeparator = "#"

// ErrNotInArchive is returned when an archive has no entry with the
// requested name.
var ErrNotInArchive = errors.New("entry not found in archive")

type grfHeader struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

type grfEntry struct {
	name             string
	compressedSize   uint32
	alignedSize      uint32
	uncompressedSize uint32
	flags            uint8
	offset           uint32
}

// Archive is an opened version 0x200 GRF archive. Entry names are
// decoded from EUC-KR and matched case-insensitively.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	entries map[string]*grfEntry
}

// OpenArchive opens the GRF archive at path.
func OpenArchive(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %q: %w", path, err)
	}
	a, err := NewArchive(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.closer = f
	return a, nil
}

// NewArchive reads the header and file table from r.
func NewArchive(r io.ReaderAt) (*Archive, error) {
	var h grfHeader
	if err := binary.Read(io.NewSectionReader(r, 0, grfHeaderSize), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read grf header: %w", err)
	}
	if string(h.Magic[:]) != grfMagic {
		return nil, fmt.Errorf("%w: bad grf magic", ErrMalformed)
	}
	if h.Version != grfVersion {
		return nil, fmt.Errorf("%w: grf version 0x%x", ErrUnsupportedFormat, h.Version)
	}

	a := &Archive{r: r, entries: make(map[string]*grfEntry)}
	if err := a.readTable(h); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) readTable(h grfHeader) error {
	base := int64(h.TableOffset) + grfHeaderSize
	var sizes [2]uint32
	if err := binary.Read(io.NewSectionReader(a.r, base, 8), binary.LittleEndian, &sizes); err != nil {
		return fmt.Errorf("failed to read grf table size: %w", err)
	}

	zr, err := zlib.NewReader(io.NewSectionReader(a.r, base+8, int64(sizes[0])))
	if err != nil {
		return fmt.Errorf("failed to open grf table: %w", err)
	}
	defer zr.Close()

	table := make([]byte, sizes[1])
	if _, err := io.ReadFull(zr, table); err != nil {
		return fmt.Errorf("failed to inflate grf table: %w", err)
	}

	count := int64(h.FileCount) - int64(h.Seed) - 7
	dec := korean.EUCKR.NewDecoder()
	off := 0
	for i := int64(0); i < count; i++ {
		end := bytes.IndexByte(table[off:], 0)
		if end < 0 || off+end+1+17 > len(table) {
			return fmt.Errorf("%w: truncated grf table at byte %d", ErrMalformed, off)
		}
		raw := table[off : off+end]
		off += end + 1

		name, err := dec.Bytes(raw)
		if err != nil {
			name = raw
		}
		rec := table[off : off+17]
		off += 17

		e := &grfEntry{
			name:             archiveKey(string(name)),
			compressedSize:   binary.LittleEndian.Uint32(rec[0:]),
			alignedSize:      binary.LittleEndian.Uint32(rec[4:]),
			uncompressedSize: binary.LittleEndian.Uint32(rec[8:]),
			flags:            rec[12],
			offset:           binary.LittleEndian.Uint32(rec[13:]),
		}
		if e.flags&grfFlagFile != 0 {
			a.entries[e.name] = e
		}
	}
	return nil
}

// Close releases the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// List returns the sorted names of the entries whose base name matches
// pattern. An empty pattern matches everything.
func (a *Archive) List(pattern string) ([]string, error) {
	pattern = strings.ToLower(pattern)
	var out []string
	for name := range a.entries {
		if pattern != "" {
			ok, err := path.Match(pattern, path.Base(name))
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Contains reports whether the archive has an entry called name.
func (a *Archive) Contains(name string) bool {
	_, ok := a.entries[archiveKey(name)]
	return ok
}

// ReadFile returns the uncompressed contents of an entry.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	e, ok := a.entries[archiveKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInArchive, name)
	}
	if e.flags&grfFlagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s is encrypted", ErrUnsupportedFormat, name)
	}

	data := io.NewSectionReader(a.r, int64(e.offset)+grfHeaderSize, int64(e.compressedSize))
	out := make([]byte, e.uncompressedSize)
	if e.compressedSize == e.uncompressedSize {
		if _, err := io.ReadFull(data, out); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return out, nil
	}

	zr, err := zlib.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate %s: %w", name, err)
	}
	defer zr.Close()
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("failed to inflate %s: %w", name, err)
	}
	return out, nil
}

// Open reads one geometry entry, choosing the reader by extension.
func (a *Archive) Open(name string) (Source, error) {
	data, err := a.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return decode(data, name)
}

// splitArchivePath splits "file.grf#entry" into its two halves.
func splitArchivePath(p string) (archive, entry string, ok bool) {
	archive, entry, ok = strings.Cut(p, ArchiveSeparator)
	if !ok || entry == "" || strings.ToLower(path.Ext(archive)) != ".grf" {
		return "", "", false
	}
	return archive, entry, true
}

func archiveKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}
