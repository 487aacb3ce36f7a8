package epubfix

import (
	"path"
	"sort"
	"strings"
)

// refForm is one syntactic shape a resource reference can take in a
// document, paired with its structurally corresponding replacement.
type refForm struct {
	old string
	new string
}

// referenceForms enumerates the shapes a reference to oldPath can take:
// parent-relative, current-directory-relative, the exact path, and the
// bare filename. The exact path comes before the bare filename so that
// full-path occurrences are rewritten with their directory part intact.
func referenceForms(oldPath, newPath string) []refForm {
	forms := []refForm{
		{"../" + oldPath, "../" + newPath},
		{"./" + oldPath, "./" + newPath},
		{oldPath, newPath},
	}
	if ob := path.Base(oldPath); ob != oldPath {
		forms = append(forms, refForm{ob, path.Base(newPath)})
	}
	return forms
}

// isReferenceDocument reports whether a tree file can contain resource
// references: manifest, navigation, markup, and stylesheet documents.
// Files with opaque names are included when their sniffed classification
// says they are textual markup or stylesheets.
func isReferenceDocument(name string, c Classification) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".opf", ".ncx", ".xhtml", ".html", ".htm", ".css":
		return true
	}
	return c.Textual && (c.Media == MediaMarkup || c.Media == MediaStylesheet)
}

// isXMLReferenceDocument reports manifest/navigation documents, where
// matching is constrained to attribute values and element text.
func isXMLReferenceDocument(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".opf", ".ncx":
		return true
	}
	return false
}

// rewriteDocument applies every mapping to one document and returns the
// rewritten content with a flag reporting whether anything changed.
func rewriteDocument(content string, name string, renames map[string]string) (string, bool) {
	// Deterministic mapping order.
	olds := make([]string, 0, len(renames))
	for old := range renames {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	original := content
	xmlDoc := isXMLReferenceDocument(name)
	for _, old := range olds {
		for _, f := range referenceForms(old, renames[old]) {
			if xmlDoc {
				content = replaceXMLValue(content, f.old, f.new)
			} else {
				content = strings.ReplaceAll(content, f.old, f.new)
			}
		}
	}
	return content, content != original
}

// replaceXMLValue rewrites old to new only where it terminates an attribute
// value or element text, i.e. where the next character closes the value.
// The value may carry a directory prefix (href="Fonts/x.ttf" matched by the
// bare filename form), so only the trailing boundary is anchored. Broader
// substring replacement is reserved for markup and stylesheet documents.
func replaceXMLValue(content, old, new string) string {
	for _, d := range [...]string{`"`, `'`, `<`} {
		content = strings.ReplaceAll(content, old+d, new+d)
	}
	return content
}

// rewriteReferences rewrites every committed mapping across every candidate
// document in the tree. Documents with no occurrences are left untouched
// and excluded from the changed count. Must run strictly after all renames
// are finalized: partial mappings would corrupt cross-references.
func rewriteReferences(t *workingTree, renames map[string]string, classes map[string]Classification, warn func(format string, args ...any)) int {
	if len(renames) == 0 {
		return 0
	}

	changed := 0
	for _, name := range t.walk() {
		if !isReferenceDocument(name, classes[name]) {
			continue
		}
		data, err := t.read(name)
		if err != nil {
			warn("cannot read %s for reference rewriting: %v", name, err)
			continue
		}
		out, dirty := rewriteDocument(string(data), name, renames)
		if !dirty {
			continue
		}
		if err := t.write(name, []byte(out)); err != nil {
			warn("cannot rewrite references in %s: %v", name, err)
			continue
		}
		changed++
	}
	return changed
}
