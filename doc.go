// Package epubfix removes reversible DRM from ePub containers and restores
// the structure that obfuscation destroyed.
//
// Given a ZIP-based ePub package, the engine parses the encryption
// descriptor (META-INF/encryption.xml), reverses the IDPF/Adobe font
// obfuscation using a key derived from the package's unique identifier,
// recovers meaningful filenames for resources whose names were scrambled,
// rewrites every cross-reference (manifest, navigation, markup, stylesheet)
// to the restored names, and prunes non-functional encrypted stubs. The
// result is written as a new, structurally valid container with the
// mandated uncompressed-first "mimetype" entry.
//
// # Processing a file
//
// Use [Fix] to process a file on disk, or [FixReader] to work from an
// [io.ReaderAt]:
//
//	report, err := epubfix.Fix("protected.epub", "clean.epub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("renamed %d, de-obfuscated %d\n", report.Renamed, report.Deobfuscated)
//
// # Degraded conditions
//
// The input archive is never modified and the output is created only after
// the whole pipeline succeeds. Recoverable problems do not abort the run:
// a missing unique identifier skips font de-obfuscation only, a malformed
// encryption descriptor is treated as no encryption metadata, and
// per-resource failures leave that resource as-is. Every such condition is
// collected in [Report.Warnings] so an operator can judge whether manual
// follow-up is needed.
//
// Strongly encrypted content (e.g. AES-protected payloads) is not
// decrypted: small leftover stubs are removed and larger encrypted files
// are kept with a warning.
package epubfix
