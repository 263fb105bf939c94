// Package format converts HTML email bodies into plain text.
package format

import (
	"bytes"
	"strings"

	"github.com/k3a/html2text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Converter handles document format conversions.
type Converter struct{}

// HTML2Text strips tags and decodes entities, keeping link labels and
// dropping scripts, styles and the document head.
func (c Converter) HTML2Text(raw []byte) string {
	cleaned := PruneNonContent(raw)

	text := html2text.HTML2Text(string(cleaned))

	return strings.TrimSpace(text)
}

// PruneNonContent removes nodes that never carry readable body text and
// unwraps links so only their label is left. The input is returned
// unchanged if it cannot be parsed or rendered.
func PruneNonContent(raw []byte) []byte {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return raw
	}

	pruneNode(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return raw
	}

	return buf.Bytes()
}

func pruneNode(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		switch {
		case isNonContent(child):
			n.RemoveChild(child)
		case child.Type == html.ElementNode && child.DataAtom == atom.A:
			if child.FirstChild != nil {
				next = child.FirstChild
			}
			unwrap(n, child)
		default:
			pruneNode(child)
		}
		child = next
	}
}

// unwrap moves the children of child up into n in its place.
func unwrap(n, child *html.Node) {
	for c := child.FirstChild; c != nil; c = child.FirstChild {
		child.RemoveChild(c)
		n.InsertBefore(c, child)
	}
	n.RemoveChild(child)
}

func isNonContent(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return true
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Head, atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Title:
			return true
		}
	}
	return false
}
