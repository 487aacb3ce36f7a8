package epubfix

import (
	"encoding/xml"
	"strings"

	"github.com/google/uuid"
)

// opfPackage represents the root <package> element of an OPF file, trimmed
// to what identifier resolution needs.
type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
}

type opfMetadata struct {
	Identifiers []opfIdentifier `xml:"http://purl.org/dc/elements/1.1/ identifier"`
}

// opfIdentifier holds a dc:identifier element. The package's
// unique-identifier attribute names the id of the authoritative one.
type opfIdentifier struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

// resolveIdentifier extracts the package's unique identifier from the OPF
// referenced by container.xml. It is read-only.
//
// On success the raw identifier value is returned. Any classified absence
// (no OPF, no unique-identifier attribute, no matching dc:identifier,
// empty value) returns an empty identifier and a human-readable reason;
// the caller must degrade gracefully rather than abort, since only font
// de-obfuscation depends on the identifier.
func resolveIdentifier(t *workingTree) (id, reason string) {
	opfPath, err := findOPFPath(t)
	if err != nil {
		return "", "metadata manifest not found: " + err.Error()
	}

	data, err := t.read(opfPath)
	if err != nil {
		return "", "cannot read metadata manifest " + opfPath + ": " + err.Error()
	}

	data = preprocessHTMLEntities(stripBOM(data))

	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return "", "cannot parse metadata manifest " + opfPath + ": " + err.Error()
	}

	if pkg.UniqueIdentifier == "" {
		return "", "metadata manifest declares no unique-identifier attribute"
	}

	for _, ident := range pkg.Metadata.Identifiers {
		if ident.ID != pkg.UniqueIdentifier {
			continue
		}
		v := strings.TrimSpace(ident.Value)
		if v == "" {
			return "", "unique identifier element " + ident.ID + " is empty"
		}
		return v, ""
	}

	return "", "no identifier element matches unique-identifier " + pkg.UniqueIdentifier
}

// normalizeIdentifier prepares an identifier for key derivation: the
// urn:uuid prefix is stripped, hyphens removed, and the result lowercased.
// Values that parse as a UUID go through their canonical form first so
// equivalent spellings derive the same key.
func normalizeIdentifier(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "urn:uuid:")
	if u, err := uuid.Parse(s); err == nil {
		return strings.ReplaceAll(u.String(), "-", "")
	}
	return strings.ToLower(strings.ReplaceAll(s, "-", ""))
}
