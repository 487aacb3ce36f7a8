package epubfix

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"OEBPS/content.opf", true},
		{"mimetype", true},
		{"a/./b", true},
		{"..", false},
		{"../escape", false},
		{"a/../../escape", false},
		{"/absolute", false},
	}

	for _, tt := range tests {
		if got := isSafePath(tt.path); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestStripBOM(t *testing.T) {
	withBOM := []byte{0xEF, 0xBB, 0xBF, '<', 'a', '>'}
	if got := stripBOM(withBOM); string(got) != "<a>" {
		t.Errorf("stripBOM() = %q, want %q", got, "<a>")
	}
	plain := []byte("<a>")
	if got := stripBOM(plain); string(got) != "<a>" {
		t.Errorf("stripBOM() modified BOM-less data: %q", got)
	}
	if got := stripBOM([]byte{0xEF, 0xBB}); len(got) != 2 {
		t.Errorf("stripBOM() truncated short data: %v", got)
	}
}

func TestReadZipFileWithLimit(t *testing.T) {
	zr := buildTestZip(t, map[string][]byte{
		"big.bin": bytes.Repeat([]byte{0x42}, 200),
	})

	if _, err := readZipFileWithLimit(zr.File[0], 100); err == nil {
		t.Error("readZipFileWithLimit() accepted an entry above the limit")
	}

	data, err := readZipFileWithLimit(zr.File[0], 4096)
	if err != nil {
		t.Fatalf("readZipFileWithLimit() error = %v", err)
	}
	if len(data) != 200 {
		t.Errorf("read %d bytes, want 200", len(data))
	}
}

func TestPackTree(t *testing.T) {
	tree := buildTestTree(t, textFiles(map[string]string{
		"mimetype":               expectedMimetype,
		"OEBPS/content.opf":      "<package/>",
		"META-INF/container.xml": testContainerXML,
	}))

	buf := new(bytes.Buffer)
	if err := packTree(buf, tree); err != nil {
		t.Fatalf("packTree() error = %v", err)
	}

	entries, names := readZipEntries(t, buf.Bytes())
	if len(names) != 3 {
		t.Fatalf("packed %d entries, want 3: %v", len(names), names)
	}
	if names[0] != "mimetype" {
		t.Errorf("first entry = %q, want mimetype", names[0])
	}
	if string(entries["mimetype"]) != expectedMimetype {
		t.Errorf("mimetype content = %q", entries["mimetype"])
	}
	if string(entries["OEBPS/content.opf"]) != "<package/>" {
		t.Errorf("content.opf round-trip mismatch: %q", entries["OEBPS/content.opf"])
	}

	// The mimetype entry must be stored uncompressed.
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if zr.File[0].Method != zip.Store {
		t.Errorf("mimetype method = %d, want Store", zr.File[0].Method)
	}
	for _, f := range zr.File[1:] {
		if f.Method != zip.Deflate {
			t.Errorf("%s method = %d, want Deflate", f.Name, f.Method)
		}
	}
}

func TestPackTreeSynthesizesMimetype(t *testing.T) {
	tree := buildTestTree(t, textFiles(map[string]string{
		"OEBPS/content.opf": "<package/>",
	}))

	buf := new(bytes.Buffer)
	if err := packTree(buf, tree); err != nil {
		t.Fatalf("packTree() error = %v", err)
	}

	entries, names := readZipEntries(t, buf.Bytes())
	if names[0] != "mimetype" {
		t.Fatalf("first entry = %q, want synthesized mimetype", names[0])
	}
	if string(entries["mimetype"]) != expectedMimetype {
		t.Errorf("synthesized mimetype content = %q, want %q", entries["mimetype"], expectedMimetype)
	}
}
