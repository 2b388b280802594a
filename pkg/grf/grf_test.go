package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testFile struct {
	name    string
	content []byte
	flags   uint8
}

// buildGRF assembles a version 0x200 archive in memory.
func buildGRF(t *testing.T, files []testFile) []byte {
	t.Helper()

	var body bytes.Buffer
	var table bytes.Buffer
	for _, f := range files {
		var compressed bytes.Buffer
		w := zlib.NewWriter(&compressed)
		w.Write(f.content)
		w.Close()

		aligned := uint32(compressed.Len())
		if aligned%8 != 0 {
			aligned += 8 - aligned%8
		}
		offset := uint32(body.Len())
		body.Write(compressed.Bytes())
		body.Write(make([]byte, aligned-uint32(compressed.Len())))

		flags := f.flags
		if flags == 0 {
			flags = entryFile
		}
		table.Write(bytes.ReplaceAll([]byte(f.name), []byte("/"), []byte("\\")))
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(compressed.Len()))
		binary.Write(&table, binary.LittleEndian, aligned)
		binary.Write(&table, binary.LittleEndian, uint32(len(f.content)))
		table.WriteByte(flags)
		binary.Write(&table, binary.LittleEndian, offset)
	}

	var compressedTable bytes.Buffer
	tw := zlib.NewWriter(&compressedTable)
	tw.Write(table.Bytes())
	tw.Close()

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     version200,
	}
	copy(header.Magic[:], grfMagic)

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(compressedTable.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(compressedTable.Bytes())
	return out.Bytes()
}

func TestNewReader(t *testing.T) {
	data := buildGRF(t, []testFile{
		{name: "data/model/Tree.rsm", content: []byte("GRSM")},
		{name: "data/texture/wall.bmp", content: []byte("BM fake bitmap data")},
		{name: "data/secret.txt", content: []byte("hidden"), flags: entryFile | entryCrypt},
	})

	archive, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer archive.Close()

	want := []string{"data/model/tree.rsm", "data/secret.txt", "data/texture/wall.bmp"}
	if diff := cmp.Diff(want, archive.List()); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	if !archive.Contains("DATA\\MODEL\\TREE.RSM") {
		t.Error("expected case-insensitive, backslash-tolerant lookup")
	}

	got, err := archive.Read("data/texture/wall.bmp")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "BM fake bitmap data" {
		t.Errorf("unexpected content %q", got)
	}

	if _, err := archive.Read("data/secret.txt"); !errors.Is(err, ErrEncrypted) {
		t.Errorf("expected ErrEncrypted, got %v", err)
	}
	if _, err := archive.Read("data/missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewReader_BadHeader(t *testing.T) {
	data := buildGRF(t, nil)

	badMagic := append([]byte(nil), data...)
	badMagic[0] = 'X'
	if _, err := NewReader(bytes.NewReader(badMagic)); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}

	badVersion := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(badVersion[42:], 0x103)
	if _, err := NewReader(bytes.NewReader(badVersion)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}

	if _, err := NewReader(bytes.NewReader([]byte("short"))); err == nil {
		t.Error("expected error for truncated header")
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open("/nonexistent/data.grf"); err == nil {
		t.Error("expected error opening missing archive")
	}
}
