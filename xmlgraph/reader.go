// Package xmlgraph is the XML Reader (C1): it turns raw CGML/GraphML text
// into the generic attribute/child tree described in spec.md §4.1, on top
// of github.com/agentflare-ai/go-xmldom. Node callers never see go-xmldom
// types directly -- C2/C3 consume only the generic Node shape defined here.
package xmlgraph

import (
	"strconv"
	"strings"

	"github.com/agentflare-ai/go-xmldom"

	"github.com/cyberiada-go/cgml/cgmlerr"
)

// Node is the generic, schema-agnostic representation of one XML element:
// attributes keyed as "@name", text content in the Text field, and repeated
// child tags collected into ordered lists keyed by their (namespace-stripped)
// local tag name.
type Node struct {
	Tag      string
	Attrs    map[string]any // "@name" -> string | int64 | float64
	Text     string         // the element's TextContent(), trimmed of surrounding space
	Children map[string][]*Node
	Order    []*Node // children in document order, regardless of tag
	Pos      cgmlerr.Position
}

// Attr returns the string form of attribute name, or "" if absent.
func (n *Node) Attr(name string) string {
	v, ok := n.Attrs["@"+name]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
	return ""
}

// ChildrenOf returns every direct child named tag, in document order.
func (n *Node) ChildrenOf(tag string) []*Node {
	return n.Children[tag]
}

// Parse decodes CGML/GraphML text into a Node tree rooted at the document
// element. A malformed document surfaces as *cgmlerr.MalformedXml.
func Parse(text []byte) (*Node, error) {
	decoder := xmldom.NewDecoderFromBytes(text)
	doc, err := decoder.Decode()
	if err != nil {
		return nil, cgmlerr.NewMalformedXml(err.Error(), cgmlerr.Position{})
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil, cgmlerr.NewMalformedXml("document has no root element", cgmlerr.Position{})
	}
	return convert(root), nil
}

func convert(el xmldom.Element) *Node {
	line, col, _ := el.Position()
	n := &Node{
		Tag:      stripNamespace(string(el.TagName())),
		Attrs:    map[string]any{},
		Children: map[string][]*Node{},
		Pos:      cgmlerr.Position{Line: line, Column: col},
	}

	children := el.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil {
			continue
		}
		childNode := convert(child)
		n.Children[childNode.Tag] = append(n.Children[childNode.Tag], childNode)
		n.Order = append(n.Order, childNode)
	}

	n.Text = strings.TrimSpace(string(el.TextContent()))
	for _, a := range attrList(el) {
		n.Attrs["@"+a.name] = coerce(a.value)
	}
	return n
}

type rawAttr struct{ name, value string }

// attrList extracts an element's attributes via the DOM-style
// Attributes()/NamedNodeMap pair go-xmldom exposes.
func attrList(el xmldom.Element) []rawAttr {
	attrs := el.Attributes()
	if attrs == nil {
		return nil
	}
	out := make([]rawAttr, 0, attrs.Length())
	for i := uint(0); i < attrs.Length(); i++ {
		a := attrs.Item(i)
		if a == nil {
			continue
		}
		out = append(out, rawAttr{name: stripNamespace(string(a.LocalName())), value: string(a.NodeValue())})
	}
	return out
}

// coerce opportunistically converts numeric-looking attribute text to
// int64/float64, per spec.md §4.1.
func coerce(s string) any {
	if s == "" {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// stripNamespace drops a "prefix:" or default-namespace qualifier from a
// tag/attribute name, keeping only the local part.
func stripNamespace(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
