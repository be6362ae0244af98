// Package report cross-references the PDF files named by document
// components against the scanned files present on disk.
package report

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stwalsh4118/cadastre/internal/discovery"
	"github.com/stwalsh4118/cadastre/internal/extractor"
)

// Reference is one PDF name found in a document.
type Reference struct {
	Name    string
	URL     string
	XMLFile string
}

// References holds every PDF name referenced under one directory.
type References struct {
	XMLFiles    int
	Unparseable int
	// ByName maps a PDF name to one reference per document naming it, in
	// document path order.
	ByName map[string][]Reference
}

// Names returns the referenced PDF names, sorted.
func (r *References) Names() []string {
	return sortedKeys(r.ByName)
}

// Index maps a PDF file name to every path it was found at.
type Index map[string][]string

// Names returns the indexed file names, sorted.
func (idx Index) Names() []string {
	return sortedKeys(idx)
}

// pdfName returns the file name part of a component url and whether it
// names a PDF.
func pdfName(url string) (string, bool) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", false
	}
	name := url[strings.LastIndex(url, "/")+1:]
	return name, isPDF(name)
}

func isPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// ExtractPDFReferences reads every .xml file under xmlDir and collects the
// PDF names of their document components. Files that fail to parse are
// counted and otherwise ignored.
func ExtractPDFReferences(xmlDir string) (*References, error) {
	files, err := discovery.CollectFiles(xmlDir, ".xml")
	if err != nil {
		return nil, err
	}

	refs := &References{
		XMLFiles: len(files),
		ByName:   make(map[string][]Reference),
	}
	for _, path := range files {
		doc, err := extractor.ParseFile(path)
		if err != nil {
			refs.Unparseable++
			continue
		}

		seen := make(map[string]bool)
		for _, url := range extractor.ComponentURLs(doc) {
			name, ok := pdfName(url)
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			refs.ByName[name] = append(refs.ByName[name], Reference{Name: name, URL: strings.TrimSpace(url), XMLFile: path})
		}
	}
	return refs, nil
}

// IndexPDFFiles walks dir and indexes every file whose extension is .pdf in
// any letter case. A missing directory yields an empty index and a zero
// count.
func IndexPDFFiles(dir string) (Index, int, error) {
	idx := make(Index)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return idx, 0, nil
	}

	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && isPDF(d.Name()) {
			count++
			idx[d.Name()] = append(idx[d.Name()], path)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	for _, paths := range idx {
		sort.Strings(paths)
	}
	return idx, count, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
