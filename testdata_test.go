package epubfix

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"testing"
)

// buildTestZip creates an in-memory ZIP archive from the provided files map
// (path → content) and returns a *zip.Reader over the resulting bytes.
// The mimetype entry, if present, is written first (ePub spec requires it
// as the first entry); the remaining entries follow in sorted order so
// fixtures are deterministic. It calls t.Fatal on any error.
func buildTestZip(t *testing.T, files map[string][]byte) *zip.Reader {
	t.Helper()
	data := buildTestZipBytes(t, files)
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestZip: open reader: %v", err)
	}
	return r
}

func buildTestZipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	write := func(name string, content []byte) {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestZipBytes: create %s: %v", name, err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("buildTestZipBytes: write %s: %v", name, err)
		}
	}

	if mt, ok := files["mimetype"]; ok {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			t.Fatalf("buildTestZipBytes: create mimetype: %v", err)
		}
		if _, err := fw.Write(mt); err != nil {
			t.Fatalf("buildTestZipBytes: write mimetype: %v", err)
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		write(name, files[name])
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZipBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// textFiles converts a map of string contents to the byte map the builders use.
func textFiles(files map[string]string) map[string][]byte {
	out := make(map[string][]byte, len(files))
	for name, content := range files {
		out[name] = []byte(content)
	}
	return out
}

// buildTestTree creates a working tree populated with the given files.
func buildTestTree(t *testing.T, files map[string][]byte) *workingTree {
	t.Helper()
	tree := newWorkingTree(nil)
	for name, content := range files {
		if err := tree.write(name, content); err != nil {
			t.Fatalf("buildTestTree: write %s: %v", name, err)
		}
	}
	return tree
}

// fakeTTF returns n bytes that start with the TrueType signature and then
// carry a deterministic pattern, long enough to cross the 1040-byte
// obfuscation boundary when n > 1040.
func fakeTTF(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0x00, 0x01, 0x00, 0x00})
	for i := 4; i < n; i++ {
		data[i] = byte(i * 7)
	}
	return data
}

// obfuscate returns a copy of data with the IDPF transform applied for the
// given identifier. The transform is an involution, so the same key
// restores the original bytes.
func obfuscate(data []byte, identifier string) []byte {
	out := append([]byte(nil), data...)
	deobfuscatePrefix(out, obfuscationKey(identifier))
	return out
}

// readZipEntries reads every entry of a ZIP archive into a map, also
// returning the entry names in archive order.
func readZipEntries(t *testing.T, data []byte) (map[string][]byte, []string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("readZipEntries: %v", err)
	}
	entries := make(map[string][]byte, len(zr.File))
	var names []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("readZipEntries: open %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("readZipEntries: read %s: %v", f.Name, err)
		}
		entries[f.Name] = content
		names = append(names, f.Name)
	}
	return entries, names
}
