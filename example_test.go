package epubfix_test

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	epubfix "github.com/yangguo/epub-fixer"
)

func ExampleFix() {
	rep, err := epubfix.Fix("book.epub", "book-fixed.epub",
		epubfix.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("fonts de-obfuscated: %d\n", rep.Deobfuscated)
	fmt.Printf("files renamed:       %d\n", rep.Renamed)
	for _, w := range rep.Warnings {
		fmt.Println("warning:", w)
	}
}
