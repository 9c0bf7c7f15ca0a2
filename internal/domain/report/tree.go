package report

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Kind tags the shape of a parsed XML node.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Key prefixes used in mappings for attributes and element text.
const (
	attrPrefix = "@"
	textKey    = "#text"
)

// Node is one value of a parsed document. An element with neither
// attributes nor children is a scalar holding its trimmed text; any other
// element is a mapping whose keys are child names, "@attr" and "#text".
// Repeated children with the same name collapse into a sequence.
type Node struct {
	kind   Kind
	text   string
	items  []*Node
	keys   []string
	fields map[string]*Node
}

func scalar(text string) *Node { return &Node{kind: KindScalar, text: text} }

func mapping() *Node { return &Node{kind: KindMapping, fields: map[string]*Node{}} }

// Kind returns the node's shape.
func (n *Node) Kind() Kind { return n.kind }

// Keys returns mapping keys in document order.
func (n *Node) Keys() []string { return n.keys }

// Len is the number of items of a sequence, or 1 for any other node.
func (n *Node) Len() int {
	if n.kind == KindSequence {
		return len(n.items)
	}
	return 1
}

// add stores v under key, promoting an existing value to a sequence.
func (n *Node) add(key string, v *Node) {
	cur, ok := n.fields[key]
	switch {
	case !ok:
		n.keys = append(n.keys, key)
		n.fields[key] = v
	case cur.kind == KindSequence:
		cur.items = append(cur.items, v)
	default:
		n.fields[key] = &Node{kind: KindSequence, items: []*Node{cur, v}}
	}
}

// Lookup returns the value stored under key in a mapping.
func (n *Node) Lookup(key string) (*Node, bool) {
	if n == nil || n.kind != KindMapping {
		return nil, false
	}
	v, ok := n.fields[key]
	return v, ok
}

// Child returns a required mapping entry. path names the node in errors.
func (n *Node) Child(path, key string) (*Node, error) {
	if n == nil {
		return nil, missing(path)
	}
	// An empty element such as <breakdown/> parses as an empty scalar and
	// has no children to offer.
	if n.kind == KindScalar && n.text == "" {
		return nil, missing(joinPath(path, key))
	}
	if n.kind != KindMapping {
		return nil, malformed(path, fmt.Errorf("expected mapping, got %s", n.kind))
	}
	v, ok := n.fields[key]
	if !ok {
		return nil, missing(joinPath(path, key))
	}
	return v, nil
}

// Text returns the text of a scalar, or the #text entry of a mapping.
// A mapping without text yields "".
func (n *Node) Text(path string) (string, error) {
	switch n.kind {
	case KindScalar:
		return n.text, nil
	case KindMapping:
		if t, ok := n.fields[textKey]; ok && t.kind == KindScalar {
			return t.text, nil
		}
		return "", nil
	default:
		return "", malformed(path, fmt.Errorf("expected text, got %s", n.kind))
	}
}

// Attr returns an attribute of a mapping node.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Lookup(attrPrefix + name)
	if !ok || v.kind != KindScalar {
		return "", false
	}
	return v.text, true
}

// Entries views the node as a sequence: a sequence yields its items and
// any other node yields itself.
func (n *Node) Entries() []*Node {
	if n.kind == KindSequence {
		return n.items
	}
	return []*Node{n}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// frame accumulates one open element while parsing.
type frame struct {
	name     string
	node     *Node
	text     strings.Builder
	children bool
}

func (f *frame) finish() *Node {
	text := strings.TrimSpace(f.text.String())
	if !f.children && len(f.node.keys) == 0 {
		return scalar(text)
	}
	if text != "" {
		f.node.add(textKey, scalar(text))
	}
	return f.node
}

// Parse reads a single-rooted XML document into a mapping holding the root
// element under its local name.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	doc := mapping()
	var stack []*frame

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed("document", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && len(doc.keys) > 0 {
				return nil, malformed("document", errors.New("multiple root elements"))
			}
			f := &frame{name: t.Name.Local, node: mapping()}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				f.node.add(attrPrefix+a.Name.Local, scalar(a.Value))
			}
			if len(stack) > 0 {
				stack[len(stack)-1].children = true
			}
			stack = append(stack, f)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node := f.finish()
			if len(stack) == 0 {
				doc.add(f.name, node)
			} else {
				stack[len(stack)-1].node.add(f.name, node)
			}
		}
	}
	if len(doc.keys) == 0 {
		return nil, malformed("document", errors.New("no root element"))
	}
	return doc, nil
}
