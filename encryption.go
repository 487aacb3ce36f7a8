package epubfix

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// encryptionFilePath is the standard path for the encryption descriptor.
const encryptionFilePath = "META-INF/encryption.xml"

// Font obfuscation algorithm URIs. Resources declared with one of these
// are reversible; everything else is opaque to this engine.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true, // IDPF font obfuscation
	"http://ns.adobe.com/pdf/enc#RC":     true, // Adobe font obfuscation
}

// XML structures for parsing encryption.xml.

type xmlEncryption struct {
	XMLName       xml.Name           `xml:"encryption"`
	EncryptedData []xmlEncryptedData `xml:"EncryptedData"`
}

type xmlEncryptedData struct {
	EncryptionMethod xmlEncryptionMethod `xml:"EncryptionMethod"`
	CipherData       xmlCipherData       `xml:"CipherData"`
}

type xmlEncryptionMethod struct {
	Algorithm string `xml:"Algorithm,attr"`
}

type xmlCipherData struct {
	CipherReference xmlCipherReference `xml:"CipherReference"`
}

type xmlCipherReference struct {
	URI string `xml:"URI,attr"`
}

// parseEncryption parses the encryption descriptor and classifies each
// declared resource. Entries without a CipherReference URI are skipped.
// A missing EncryptionMethod is treated as opaque encryption.
func parseEncryption(data []byte) ([]EncryptionDeclaration, error) {
	data = preprocessHTMLEntities(stripBOM(data))

	var enc xmlEncryption
	if err := xml.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("epubfix: parse encryption descriptor: %w", err)
	}

	decls := make([]EncryptionDeclaration, 0, len(enc.EncryptedData))
	for _, ed := range enc.EncryptedData {
		p := cleanResourceURI(ed.CipherData.CipherReference.URI)
		if p == "" {
			continue
		}

		decl := EncryptionDeclaration{
			Path:      p,
			Algorithm: ed.EncryptionMethod.Algorithm,
			Category:  CategoryOpaqueEncryption,
		}
		if fontObfuscationAlgorithms[decl.Algorithm] {
			decl.Category = CategoryFontObfuscation
		}
		decls = append(decls, decl)
	}

	return decls, nil
}

// cleanResourceURI converts a CipherReference URI into a tree path:
// percent-escapes decoded, cleaned, and validated against path traversal.
// Returns empty for unusable URIs.
func cleanResourceURI(uri string) string {
	s := strings.TrimSpace(uri)
	if s == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	s = path.Clean(strings.TrimPrefix(s, "/"))
	if s == "." || !isSafePath(s) {
		return ""
	}
	return s
}
