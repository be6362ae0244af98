// Package extractor turns one cadastral XML document into typed records.
package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/stwalsh4118/cadastre/internal/models"
)

var (
	// ErrParse is returned for any document that cannot be loaded as a tree.
	ErrParse = errors.New("failed to parse xml document")
	// ErrNoRoot is returned for an input with no root element.
	// It always comes wrapped together with ErrParse.
	ErrNoRoot = errors.New("document has no root element")
	// ErrTrailingContent is returned for a second root element or for text
	// outside the root element.
	ErrTrailingContent = errors.New("content outside document element")
)

// xmlqueryNoRoot is the message xmlquery reports for an input that holds no
// element at all. The library exposes no sentinel for it.
const xmlqueryNoRoot = "xmlquery: invalid XML document"

// Document is a parsed XML tree ready for extraction.
type Document struct {
	root *xmlquery.Node
}

// Parse reads a whole document from r. Extraction never starts on a
// partially parsed tree.
func Parse(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		if err.Error() == xmlqueryNoRoot {
			return nil, fmt.Errorf("%w: %w", ErrParse, ErrNoRoot)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := checkTopLevel(root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &Document{root: root}, nil
}

// ParseFile opens and parses the document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	return Parse(f)
}

// Extract runs every per-kind extraction over doc.
func Extract(doc *Document) *models.Records {
	return &models.Records{
		Parcels:      ExtractParcels(doc),
		Persons:      ExtractPersons(doc),
		Certificates: ExtractCertificates(doc),
		Components:   ExtractDocumentComponents(doc),
	}
}

// ExtractFile parses the document at path and extracts all record kinds.
func ExtractFile(path string) (*models.Records, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Extract(doc), nil
}

// checkTopLevel requires exactly one root element and no text beside it.
// xmlquery attaches a second root or trailing text as siblings of the first,
// and text ahead of any declaration as a sibling of the document node.
func checkTopLevel(doc *xmlquery.Node) error {
	var top []*xmlquery.Node
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		top = append(top, n)
	}
	for n := doc.NextSibling; n != nil; n = n.NextSibling {
		top = append(top, n)
	}

	elements := 0
	for _, n := range top {
		switch n.Type {
		case xmlquery.ElementNode:
			elements++
			if elements > 1 {
				return fmt.Errorf("%w: second root element <%s>", ErrTrailingContent, n.Data)
			}
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				return fmt.Errorf("%w: text %q", ErrTrailingContent, text)
			}
		}
	}
	if elements == 0 {
		return ErrNoRoot
	}
	return nil
}

// collection returns the direct item children of the first container named
// container anywhere in the document.
func (d *Document) collection(container, item string) []*xmlquery.Node {
	c := xmlquery.FindOne(d.root, "//"+container)
	if c == nil {
		return nil
	}
	return children(c, item)
}

// children returns the direct element children of n named name, in order.
func children(n *xmlquery.Node, name string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			out = append(out, c)
		}
	}
	return out
}

// child returns the first direct element child of n named name.
func child(n *xmlquery.Node, name string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return c
		}
	}
	return nil
}
