package epubfix

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// containerXML models the META-INF/container.xml file used to locate the OPF.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

// rootFile represents a single <rootfile> element inside container.xml.
type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// containerPath is the well-known location of container.xml in an ePub archive.
const containerPath = "META-INF/container.xml"

// findOPFPath locates the metadata manifest (OPF) in the working tree.
//
// It first tries META-INF/container.xml (case-insensitive lookup). If the file
// is missing, it falls back to scanning the tree for a ".opf" file.
// Returns a wrapped ErrInvalidArchive if no OPF path can be determined.
func findOPFPath(t *workingTree) (string, error) {
	if name := t.find(containerPath); name != "" {
		return parseContainerXML(t, name)
	}

	// Fallback: scan for .opf files.
	for _, name := range t.walk() {
		if strings.HasSuffix(strings.ToLower(name), ".opf") {
			return name, nil
		}
	}
	return "", fmt.Errorf("epubfix: no OPF file found in package: %w", ErrInvalidArchive)
}

// parseContainerXML reads and decodes container.xml, returning the full-path
// of the rootfile that declares the OPF media type (or the first non-empty
// full-path as a fallback).
func parseContainerXML(t *workingTree, name string) (string, error) {
	data, err := t.read(name)
	if err != nil {
		return "", fmt.Errorf("epubfix: read container.xml: %w", err)
	}

	data = preprocessHTMLEntities(stripBOM(data))

	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("epubfix: parse container.xml: %w", err)
	}

	if len(c.RootFiles) == 0 {
		return "", fmt.Errorf("epubfix: container.xml has no rootfile entries: %w", ErrInvalidArchive)
	}

	var fallbackPath string
	for _, rf := range c.RootFiles {
		fullPath := strings.TrimSpace(rf.FullPath)
		if fullPath == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), "application/oebps-package+xml") {
			return fullPath, nil
		}
		if fallbackPath == "" {
			fallbackPath = fullPath
		}
	}

	if fallbackPath == "" {
		return "", fmt.Errorf("epubfix: container.xml rootfile has empty full-path: %w", ErrInvalidArchive)
	}

	return fallbackPath, nil
}
