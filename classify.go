package epubfix

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"
)

// sniffLen is how many leading bytes classifyContent inspects.
const sniffLen = 512

// Binary signatures, first match wins.
var (
	sigPNG  = []byte("\x89PNG")
	sigJPEG = []byte{0xFF, 0xD8, 0xFF}
	sigGIF  = []byte("GIF8")
	sigTTF  = []byte{0x00, 0x01, 0x00, 0x00}
	sigOTTO = []byte("OTTO")
	sigWOFF = []byte("wOFF")
)

// classifyContent sniffs the first bytes of a resource and returns its true
// media type. The current filename must not influence the result, since
// obfuscated names are meaningless; the single exception is the trailing
// ".css" stylesheet check, which cannot be expressed as a byte signature.
func classifyContent(header []byte, name string) Classification {
	if len(header) > sniffLen {
		header = header[:sniffLen]
	}
	lower := bytes.ToLower(header)

	var c Classification
	switch {
	case bytes.HasPrefix(header, sigPNG):
		c = Classification{Media: MediaImage, Subtype: "png", Ext: "png"}
	case bytes.HasPrefix(header, sigJPEG):
		c = Classification{Media: MediaImage, Subtype: "jpeg", Ext: "jpg"}
	case bytes.HasPrefix(header, sigGIF):
		c = Classification{Media: MediaImage, Subtype: "gif", Ext: "gif"}
	case svgSignature(lower):
		c = Classification{Media: MediaImage, Subtype: "svg", Ext: "svg", Textual: true}
	case bytes.HasPrefix(header, sigTTF) || bytes.HasPrefix(header, sigOTTO):
		c = Classification{Media: MediaFont, Subtype: "truetype", Ext: "ttf"}
	case bytes.HasPrefix(header, sigWOFF):
		c = Classification{Media: MediaFont, Subtype: "woff", Ext: "woff"}
	case markupSignature(lower):
		if hasHTMLRoot(header) || bytes.Contains(lower, []byte("<html")) {
			c = Classification{Media: MediaMarkup, Subtype: "html", Ext: "xhtml", Textual: true}
		} else {
			c = Classification{Media: MediaMarkup, Subtype: "xml", Ext: "xml", Textual: true}
		}
	case stylesheetSignature(lower, name):
		c = Classification{Media: MediaStylesheet, Subtype: "css", Ext: "css", Textual: true}
	default:
		c = Classification{Media: MediaUnknown, Ext: "bin"}
	}

	if c.Textual {
		c.Encoding = probeEncoding(header)
	}
	return c
}

// svgSignature reports an SVG root element near the start of the content.
func svgSignature(lower []byte) bool {
	limit := min(100, len(lower))
	return bytes.Contains(lower[:limit], []byte("<svg"))
}

// markupSignature reports an HTML/XML declaration or root tag.
func markupSignature(lower []byte) bool {
	return bytes.Contains(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<!doctype")) ||
		bytes.Contains(lower, []byte("<?xml"))
}

// stylesheetSignature reports CSS @-rules, or a stylesheet filename
// extension as a last resort.
func stylesheetSignature(lower []byte, name string) bool {
	if bytes.Contains(lower, []byte("@")) &&
		(bytes.Contains(lower, []byte("font-face")) ||
			bytes.Contains(lower, []byte("import")) ||
			bytes.Contains(lower, []byte("charset"))) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(name), ".css")
}

// hasHTMLRoot tokenizes the header and reports whether the first element
// is <html>. Doctype declarations, comments, and processing instructions
// before the root element are skipped.
func hasHTMLRoot(header []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(header))
	for i := 0; i < 64; i++ {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := z.TagName()
			return atom.Lookup(tn) == atom.Html
		}
	}
	return false
}

// probeEncoding checks decodability of textual content: UTF-8 first, then
// Latin-1, else unknown.
func probeEncoding(header []byte) string {
	if utf8.Valid(header) {
		return "utf-8"
	}
	if _, err := charmap.ISO8859_1.NewDecoder().Bytes(header); err == nil {
		return "latin-1"
	}
	return "unknown"
}

// extMatches reports whether a filename extension (without dot, lowercased)
// is consistent with the classification. Used only for the reclassification
// count in the report.
func extMatches(ext string, c Classification) bool {
	if ext == c.Ext {
		return true
	}
	aliases := map[string][]string{
		"jpg":   {"jpeg"},
		"xhtml": {"html", "htm"},
		"ttf":   {"otf"},
		"xml":   {"opf", "ncx"},
	}
	for _, a := range aliases[c.Ext] {
		if ext == a {
			return true
		}
	}
	return false
}
