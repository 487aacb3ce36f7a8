package epubfix

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
)

type options struct {
	logger        *slog.Logger
	stubThreshold int64
}

// Option configures a processing run.
type Option func(*options)

// WithLogger sets the structured logger used for progress and warning
// messages. By default nothing is logged; degraded conditions are always
// collected in the Report regardless.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStubThreshold overrides the size (in bytes) below which an opaquely
// encrypted leftover is pruned as a non-functional stub. Zero disables
// pruning entirely.
func WithStubThreshold(n int64) Option {
	return func(o *options) {
		o.stubThreshold = n
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		stubThreshold: defaultStubThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Fix removes the reversible DRM from the ePub at inputPath and writes a
// structurally consistent, DRM-free container to outputPath.
//
// The input file is never modified; the output file is created only after
// the whole pipeline has succeeded, so on any error the input remains a
// safe fallback and no partial output exists.
func Fix(inputPath, outputPath string, opts ...Option) (*Report, error) {
	zrc, err := zip.OpenReader(inputPath)
	if err != nil {
		return nil, fmt.Errorf("epubfix: open %s: %w", inputPath, err)
	}
	defer zrc.Close()

	var buf bytes.Buffer
	rep, err := fix(&zrc.Reader, &buf, newOptions(opts))
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("epubfix: write %s: %w", outputPath, err)
	}
	return rep, nil
}

// FixReader is the io variant of Fix: it reads the input archive from r
// (size bytes) and writes the output archive to w. Nothing is written to w
// until the pipeline has fully succeeded.
func FixReader(r io.ReaderAt, size int64, w io.Writer, opts ...Option) (*Report, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epubfix: open archive: %w", err)
	}

	var buf bytes.Buffer
	rep, err := fix(zr, &buf, newOptions(opts))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("epubfix: write output archive: %w", err)
	}
	return rep, nil
}

// processor carries the mutable state of one run. The pipeline is
// single-threaded: each stage depends on the completed output of the
// previous one.
type processor struct {
	tree          *workingTree
	log           *slog.Logger
	rep           *Report
	stubThreshold int64
}

// warnf records a degraded condition in the report and logs it. Degraded
// conditions never abort the run.
func (p *processor) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.rep.Warnings = append(p.rep.Warnings, msg)
	p.log.Warn(msg)
}

// fix runs the whole pipeline over an opened archive, writing the output
// container to w last. Stage order: resolve identifier, parse and delete
// the encryption descriptor, de-obfuscate fonts (so their signatures sniff
// correctly), classify, restore filenames, rewrite references, prune stubs,
// pack.
func fix(zr *zip.Reader, w io.Writer, o options) (*Report, error) {
	t := newWorkingTree(nil)
	if err := t.populate(zr); err != nil {
		return nil, err
	}

	p := &processor{
		tree:          t,
		log:           o.logger,
		rep:           &Report{Renames: make(map[string]string)},
		stubThreshold: o.stubThreshold,
	}

	// Identifier Resolver. Absence degrades: only font de-obfuscation
	// needs the identifier.
	rawID, reason := resolveIdentifier(t)
	if reason != "" {
		p.warnf("unique identifier unresolved (%s); font de-obfuscation will be skipped", reason)
	} else {
		p.rep.Identifier = normalizeIdentifier(rawID)
		p.log.Info("resolved unique identifier", "identifier", p.rep.Identifier)
	}

	// Encryption Descriptor Parser.
	decls := p.parseDescriptor()

	// Font De-obfuscator. Runs before classification so that restored
	// font signatures sniff as fonts.
	p.deobfuscateFonts(rawID, decls)

	// Content Classifier.
	classes := p.classifyAll()

	// Filename Restorer.
	renames := restoreFilenames(t, classes, p.warnf)
	p.rep.Renames = renames
	p.rep.Renamed = len(renames)
	for old, final := range renames {
		p.log.Info("restored filename", "from", old, "to", final)
	}

	// Reference Rewriter. Strictly after all renames are committed.
	p.rep.Rewritten = rewriteReferences(t, renames, classes, p.warnf)

	// Stub Pruner.
	if p.stubThreshold > 0 {
		p.rep.Pruned = pruneStubs(t, decls, renames, p.stubThreshold, p.warnf)
	}

	if err := packTree(w, t); err != nil {
		return nil, err
	}
	return p.rep, nil
}

// parseDescriptor reads META-INF/encryption.xml if present, classifies its
// declarations, and deletes it from the output tree on a successful parse
// (it no longer applies once the DRM is removed). Malformed descriptors
// degrade to "no encryption metadata" and are left in place.
func (p *processor) parseDescriptor() []EncryptionDeclaration {
	name := p.tree.find(encryptionFilePath)
	if name == "" {
		p.log.Info("no encryption descriptor found")
		return nil
	}

	data, err := p.tree.read(name)
	if err != nil {
		p.warnf("cannot read %s: %v; treating as no encryption metadata", name, err)
		return nil
	}

	decls, err := parseEncryption(data)
	if err != nil {
		p.warnf("%v; treating as no encryption metadata", err)
		return nil
	}

	if err := p.tree.remove(name); err != nil {
		p.warnf("cannot remove %s: %v", name, err)
	} else {
		p.log.Info("removed encryption descriptor", "path", name)
	}

	// Font-obfuscation declarations must reference resources present in
	// the tree; drop the ones that do not, they have nothing to restore.
	kept := decls[:0]
	for _, d := range decls {
		if d.Category == CategoryFontObfuscation && !p.tree.exists(d.Path) {
			p.warnf("declared obfuscated font %s does not exist; skipping", d.Path)
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// deobfuscateFonts reverses the IDPF XOR transform on every declared font
// resource. Missing identifier makes this a no-op (already reported as a
// degraded condition by the resolver stage). Per-resource failures warn
// and continue.
func (p *processor) deobfuscateFonts(rawID string, decls []EncryptionDeclaration) {
	var fonts []EncryptionDeclaration
	for _, d := range decls {
		if d.Category == CategoryFontObfuscation {
			fonts = append(fonts, d)
		}
	}
	if len(fonts) == 0 {
		return
	}
	if rawID == "" {
		p.warnf("%d obfuscated fonts left as-is: no unique identifier to derive the key from", len(fonts))
		return
	}

	key := obfuscationKey(rawID)
	for _, d := range fonts {
		data, err := p.tree.read(d.Path)
		if err != nil {
			p.warnf("cannot read obfuscated font %s: %v", d.Path, err)
			continue
		}
		deobfuscatePrefix(data, key)
		if err := p.tree.write(d.Path, data); err != nil {
			p.warnf("cannot write de-obfuscated font %s: %v", d.Path, err)
			continue
		}
		p.rep.Deobfuscated++
		p.log.Info("de-obfuscated font", "path", d.Path)
	}
}

// classifyAll sniffs every resource in the tree and caches the result for
// the filename restorer and reference rewriter. Classification is pure and
// side-effect-free per resource.
func (p *processor) classifyAll() map[string]Classification {
	classes := make(map[string]Classification, len(p.tree.paths))
	for _, name := range p.tree.walk() {
		data, err := p.tree.read(name)
		if err != nil {
			p.warnf("cannot read %s for classification: %v", name, err)
			continue
		}
		c := classifyContent(data, name)
		classes[name] = c

		ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
		if c.Media != MediaUnknown && !extMatches(ext, c) {
			p.rep.Reclassified++
		}
	}
	return classes
}
