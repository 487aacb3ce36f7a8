package epubfix

import (
	"fmt"
	"path"
	"strings"
)

// conservativeNameBytes is the character set a non-obfuscated filename is
// expected to stay within.
const conservativeNameBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._- /"

// isObfuscatedName reports whether a resource path looks scrambled.
//
// This is an approximate, tunable heuristic, not a guaranteed detector:
// a legitimately unusual name may be flagged (costing only a cosmetic
// rename that the rewriter keeps consistent), and a scrambled name built
// from conservative characters may slip through (leaving a valid file
// untouched).
func isObfuscatedName(p string) bool {
	if p == "" {
		return false
	}
	// Characters illegal in conventional filenames.
	if strings.ContainsAny(p, `:*?"<>|`) {
		return true
	}
	// Long runs of identical underscore-like characters.
	if strings.Contains(p, "___") {
		return true
	}
	// Leading punctuation on the path or on its final segment.
	if leadingPunct(p) || leadingPunct(path.Base(p)) {
		return true
	}
	// Anything outside the conservative filename character set.
	for i := 0; i < len(p); i++ {
		if !strings.ContainsRune(conservativeNameBytes, rune(p[i])) {
			return true
		}
	}
	return false
}

func leadingPunct(s string) bool {
	return s != "" && strings.ContainsRune("_:*", rune(s[0]))
}

// bucketFor derives the naming bucket from the classification and the
// containing directory. Markup under a "Text"-like directory is treated as
// sequential chapter content; images under an "Images"-like directory get
// their own bucket, everything else an inline one.
func bucketFor(c Classification, dir string) string {
	switch c.Media {
	case MediaImage:
		if containsFold(dir, "images") {
			return "image"
		}
		return "inline_img"
	case MediaMarkup:
		if c.Subtype == "html" {
			if containsFold(dir, "text") {
				return "chapter"
			}
			return "page"
		}
		return "text"
	case MediaStylesheet:
		return "style"
	case MediaFont:
		return "font"
	default:
		return "file"
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// restoreFilenames renames every obfuscated resource to a deterministic
// `<bucket>_NNN.<ext>` name in its own directory, committing each rename
// physically before recording it. The per-bucket sequence counters are
// explicit state threaded through one run; traversal follows the tree's
// sorted walk, so output is deterministic for a fixed input.
//
// The returned mapping records the final realized path after collision
// resolution, and is immutable from the caller's perspective: the
// reference rewriter must only run once all renames are committed.
func restoreFilenames(t *workingTree, classes map[string]Classification, warn func(format string, args ...any)) map[string]string {
	renames := make(map[string]string)
	counters := make(map[string]int)

	for _, old := range t.walk() {
		if !isObfuscatedName(old) {
			continue
		}

		cls, ok := classes[old]
		if !ok {
			// Classified-as-obfuscated resource with no classification means
			// the file vanished between classification and now; skip its mapping.
			warn("skipping rename of %s: no classification", old)
			continue
		}

		dir := path.Dir(old)
		bucket := bucketFor(cls, dir)
		counters[bucket]++
		candidate := restoredName(dir, bucket, counters[bucket], cls.Ext)

		// Collision-safe: append _<n> before the extension until unique.
		final := candidate
		for n := 1; t.exists(final); n++ {
			ext := path.Ext(candidate)
			stem := strings.TrimSuffix(candidate, ext)
			final = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}

		if err := t.rename(old, final); err != nil {
			warn("cannot rename %s to %s: %v", old, final, err)
			continue
		}
		renames[old] = final
	}

	return renames
}

func restoredName(dir, bucket string, seq int, ext string) string {
	name := fmt.Sprintf("%s_%03d.%s", bucket, seq, ext)
	if dir == "." {
		return name
	}
	return dir + "/" + name
}
