package epubfix

// defaultStubThreshold is the size below which an opaquely encrypted
// leftover is judged a non-functional placeholder.
const defaultStubThreshold int64 = 100

// pruneStubs removes placeholder files for resources whose encryption
// cannot be reversed. Best-effort: a file below the threshold is assumed
// to be a non-functional stub and deleted; larger files stay in place with
// a warning, since without key material there is no principled way to tell
// an undecryptable stub from a small legitimately encrypted asset.
func pruneStubs(t *workingTree, decls []EncryptionDeclaration, renames map[string]string, threshold int64, warn func(format string, args ...any)) int {
	pruned := 0
	for _, decl := range decls {
		if decl.Category != CategoryOpaqueEncryption {
			continue
		}

		p := decl.Path
		if np, ok := renames[p]; ok {
			p = np
		}
		if !t.exists(p) {
			continue
		}

		size, err := t.size(p)
		if err != nil {
			warn("cannot stat encrypted file %s: %v", p, err)
			continue
		}

		if size < threshold {
			if err := t.remove(p); err != nil {
				warn("cannot remove encrypted stub %s: %v", p, err)
				continue
			}
			warn("removed encrypted stub %s (%d bytes, algorithm %s)", p, size, decl.Algorithm)
			pruned++
			continue
		}

		warn("%s remains encrypted (%d bytes, algorithm %s) and may not render correctly", p, size, decl.Algorithm)
	}
	return pruned
}
