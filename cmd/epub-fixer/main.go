package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	epubfix "github.com/yangguo/epub-fixer"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("error: %s", err)
	}
}

func run() error {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags] in.epub out.epub

Removes reversible DRM from an EPUB book: reverses IDPF/Adobe font
obfuscation, restores scrambled filenames, rewrites internal references,
and drops the encryption descriptor along with non-functional encrypted
stubs. Strongly encrypted content is not decrypted; this program does not
"crack" any DRM.

The input file is never modified. The output file is only written once
processing has fully succeeded.
`, os.Args[0])
		flag.PrintDefaults()
	}

	verbose := flag.Bool("v", false, "log every processing step")
	stubThreshold := flag.Int64("stub-threshold", 100, "prune encrypted leftovers smaller than this many bytes (0 disables)")

	flag.Parse()

	inFilename := flag.Arg(0)
	if inFilename == "" {
		return fmt.Errorf("no input file specified")
	}

	outFilename := flag.Arg(1)
	if outFilename == "" {
		return fmt.Errorf("no output file specified")
	}

	opts := []epubfix.Option{epubfix.WithStubThreshold(*stubThreshold)}
	if *verbose {
		opts = append(opts, epubfix.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}

	report, err := epubfix.Fix(inFilename, outFilename, opts...)
	if err != nil {
		_ = os.Remove(outFilename) // ignore error here
		return err
	}

	fmt.Printf("de-obfuscated %d fonts, renamed %d resources, rewrote %d documents, pruned %d stubs\n",
		report.Deobfuscated, report.Renamed, report.Rewritten, report.Pruned)
	for _, w := range report.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	return nil
}
