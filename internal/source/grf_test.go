package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/korean"
)

type testGRFEntry struct {
	name     string
	data     []byte
	compress bool
	flags    uint8
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeGRF builds a version 0x200 archive. Names are stored as EUC-KR.
func writeGRF(t *testing.T, entries []testGRFEntry) []byte {
	t.Helper()
	enc := korean.EUCKR.NewEncoder()

	var body, table bytes.Buffer
	for _, e := range entries {
		stored := e.data
		if e.compress {
			stored = deflate(t, e.data)
		}
		name, err := enc.Bytes([]byte(e.name))
		if err != nil {
			t.Fatal(err)
		}
		table.Write(name)
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(stored)))
		binary.Write(&table, binary.LittleEndian, uint32(len(stored)))
		binary.Write(&table, binary.LittleEndian, uint32(len(e.data)))
		table.WriteByte(e.flags)
		binary.Write(&table, binary.LittleEndian, uint32(body.Len()))
		body.Write(stored)
	}

	var out bytes.Buffer
	header := grfHeader{
		TableOffset: uint32(body.Len()),
		Seed:        0,
		FileCount:   uint32(len(entries)) + 7,
		Version:     grfVersion,
	}
	copy(header.Magic[:], grfMagic)
	binary.Write(&out, binary.LittleEndian, header)
	out.Write(body.Bytes())

	packed := deflate(t, table.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(len(packed)))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(packed)
	return out.Bytes()
}

func testArchive(t *testing.T) []byte {
	return writeGRF(t, []testGRFEntry{
		{name: "data\\model\\House.rsm", data: testRSM(t), compress: true, flags: grfFlagFile},
		{name: "data\\readme.txt", data: []byte("hello"), flags: grfFlagFile},
		{name: "data\\유저.txt", data: []byte("korean"), compress: true, flags: grfFlagFile},
		{name: "data\\model", flags: 0},
		{name: "data\\secret.rsm", data: []byte("xxxx"), flags: grfFlagFile | 0x02},
	})
}

func TestArchive(t *testing.T) {
	a, err := NewArchive(bytes.NewReader(testArchive(t)))
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	defer a.Close()

	all, err := a.List("")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"data/model/house.rsm", "data/readme.txt", "data/secret.rsm", "data/유저.txt"}
	if len(all) != len(want) {
		t.Fatalf("List() = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, all[i], want[i])
		}
	}

	models, err := a.List("*.RSM")
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 2 {
		t.Errorf("List(*.RSM) = %v", models)
	}

	if !a.Contains("DATA\\MODEL\\HOUSE.RSM") {
		t.Error("lookup should ignore case and separators")
	}

	tests := []struct {
		name string
		want string
	}{
		{"data/readme.txt", "hello"},
		{"data/유저.txt", "korean"},
	}
	for _, tt := range tests {
		got, err := a.ReadFile(tt.name)
		if err != nil {
			t.Errorf("ReadFile(%q) error = %v", tt.name, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("ReadFile(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := a.ReadFile("data/missing.txt"); !errors.Is(err, ErrNotInArchive) {
		t.Errorf("missing entry error = %v", err)
	}
	if _, err := a.ReadFile("data/secret.rsm"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("encrypted entry error = %v", err)
	}
}

func TestArchiveOpen(t *testing.T) {
	a, err := NewArchive(bytes.NewReader(testArchive(t)))
	if err != nil {
		t.Fatal(err)
	}

	src, err := a.Open("data/model/house.rsm")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	objs, err := src.Objects()
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 2 {
		t.Errorf("expected 2 objects, got %d", len(objs))
	}

	if _, err := a.Open("data/readme.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("text entry error = %v", err)
	}
}

func TestOpenArchivePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.grf")
	if err := os.WriteFile(path, testArchive(t), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Open(path + ArchiveSeparator + "data/model/house.rsm")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	objs, err := src.Objects()
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 2 || objs[0].Name() != "base" {
		t.Errorf("unexpected objects from archive entry")
	}

	if _, err := Open(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("bare archive path error = %v", err)
	}
}

func TestNewArchiveErrors(t *testing.T) {
	bad := testArchive(t)
	bad[0] = 'X'

	wrongVersion := testArchive(t)
	binary.LittleEndian.PutUint32(wrongVersion[42:], 0x103)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad magic", bad, ErrMalformed},
		{"old version", wrongVersion, ErrUnsupportedFormat},
		{"short", []byte("Master"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArchive(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSplitArchivePath(t *testing.T) {
	tests := []struct {
		in            string
		archive, name string
		ok            bool
	}{
		{"data.grf#data/model/a.rsm", "data.grf", "data/model/a.rsm", true},
		{"/x/DATA.GRF#a.rsm", "/x/DATA.GRF", "a.rsm", true},
		{"data.grf#", "", "", false},
		{"model.obj", "", "", false},
		{"dir#1/model.obj", "", "", false},
	}
	for _, tt := range tests {
		archive, name, ok := splitArchivePath(tt.in)
		if archive != tt.archive || name != tt.name || ok != tt.ok {
			t.Errorf("splitArchivePath(%q) = %q, %q, %v", tt.in, archive, name, ok)
		}
	}
}
