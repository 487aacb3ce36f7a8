package epubfix

// Category classifies an entry of the encryption descriptor.
type Category int

const (
	// CategoryOpaqueEncryption marks a resource encrypted with an algorithm
	// this engine cannot reverse. The content is treated as opaque.
	CategoryOpaqueEncryption Category = iota

	// CategoryFontObfuscation marks a resource protected with the reversible
	// IDPF/Adobe font-mangling XOR scheme.
	CategoryFontObfuscation
)

func (c Category) String() string {
	return [...]string{"opaque-encryption", "font-obfuscation"}[c]
}

// EncryptionDeclaration is a single entry parsed from the encryption
// descriptor (META-INF/encryption.xml). Declarations are immutable once
// parsed; the set of all declarations forms the processing worklist.
type EncryptionDeclaration struct {
	// Path is the declared resource path, percent-decoded and cleaned,
	// relative to the package root.
	Path string

	// Algorithm is the EncryptionMethod algorithm URI as declared.
	Algorithm string

	// Category is the classification derived from Algorithm.
	Category Category
}

// MediaType is the coarse content type detected by sniffing resource bytes.
type MediaType int

const (
	MediaUnknown MediaType = iota
	MediaImage
	MediaFont
	MediaMarkup
	MediaStylesheet
)

func (m MediaType) String() string {
	return [...]string{"unknown", "image", "font", "markup", "stylesheet"}[m]
}

// Classification is the result of sniffing a resource's byte header.
// It never depends on the resource's current (possibly obfuscated) name,
// with the single exception of the trailing ".css" stylesheet check.
type Classification struct {
	// Media is the coarse detected type.
	Media MediaType

	// Subtype refines Media (e.g., "png", "truetype", "html", "xml", "css").
	Subtype string

	// Ext is the conventional file extension for the detected type,
	// without the leading dot (e.g., "ttf", "xhtml", "bin").
	Ext string

	// Textual reports whether the content is text rather than binary.
	Textual bool

	// Encoding is the probed text encoding for textual content
	// ("utf-8", "latin-1", or "unknown"). Empty for binary content.
	Encoding string
}

// Report summarises one processing run. Counts and warnings are what an
// operator needs to judge whether manual follow-up is required.
type Report struct {
	// Identifier is the normalized unique identifier used for font
	// de-obfuscation, or empty when none could be resolved.
	Identifier string

	// Reclassified counts resources whose sniffed content type disagrees
	// with the type implied by their current extension.
	Reclassified int

	// Deobfuscated counts font resources whose obfuscated prefix was restored.
	Deobfuscated int

	// Renamed counts resources given a restored, human-meaningful name.
	Renamed int

	// Rewritten counts documents whose cross-references changed.
	Rewritten int

	// Pruned counts encrypted stub files removed from the output.
	Pruned int

	// Renames maps each old resource path to its final realized path
	// (after collision resolution).
	Renames map[string]string

	// Warnings lists every degraded condition encountered during the run.
	Warnings []string
}
