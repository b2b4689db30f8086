package solr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/solrgo/solr/pathmap"
)

// XMLResponseParser parses the tag-based wire format
// (<response><lst name=...><int name=...>...). The tag format carries
// full type information, so dates and numbers come back typed without
// translators; translators are still applied when declared, over the
// same generic tree shape the JSON parser produces.
type XMLResponseParser struct {
	translators []pathmap.Translator
}

// NewXMLResponseParser creates a parser applying the given translators
// in declaration order.
func NewXMLResponseParser(translators ...pathmap.Translator) *XMLResponseParser {
	return &XMLResponseParser{translators: translators}
}

// WT implements ResponseParser.
func (p *XMLResponseParser) WT() string {
	return "standard"
}

// Parse implements ResponseParser.
func (p *XMLResponseParser) Parse(data []byte, params url.Values, query QueryFunc) (*Response, error) {
	tree, err := decodeTagTree(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return BuildResponse(tree, p.translators, params, query)
}

// decodeTagTree reads the tag format into the generic tree shape:
// lst and doc elements become map[string]any, arr becomes []any, result
// becomes a mapping holding its attributes plus a docs sequence, and
// typed scalar tags become Go scalars.
func decodeTagTree(r io.Reader) (any, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, &MalformedResponseError{Reason: "invalid tag payload", Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "response" {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("unknown root element <%s>", se.Name.Local)}
		}
		return decodeRoot(dec)
	}
}

// decodeRoot consumes the children of the top-level response element,
// keying each by its name attribute.
func decodeRoot(dec *xml.Decoder) (map[string]any, error) {
	root := make(map[string]any)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, &MalformedResponseError{Reason: "invalid tag payload", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			key := nameAttr(t)
			if key == "" {
				key = t.Name.Local
			}
			var v any
			if t.Name.Local == "result" {
				v, err = decodeResult(dec, t)
			} else {
				v, err = decodeValue(dec, t)
			}
			if err != nil {
				return nil, err
			}
			root[key] = v
		case xml.EndElement:
			return root, nil
		}
	}
}

// decodeResult lifts the result element's attributes (numFound, start,
// maxScore) into the synthetic response mapping alongside its docs.
func decodeResult(dec *xml.Decoder, se xml.StartElement) (map[string]any, error) {
	children, err := decodeChildren(dec)
	if err != nil {
		return nil, err
	}

	m := make(map[string]any, len(se.Attr)+1)
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "name":
			// Metadata noise, dropped during assembly anyway.
		case "numFound", "start":
			n, err := strconv.ParseInt(a.Value, 10, 64)
			if err != nil {
				return nil, &MalformedResponseError{Reason: a.Name.Local, Err: err}
			}
			m[a.Name.Local] = n
		case "maxScore":
			f, err := strconv.ParseFloat(a.Value, 64)
			if err != nil {
				return nil, &MalformedResponseError{Reason: a.Name.Local, Err: err}
			}
			m[a.Name.Local] = f
		default:
			m[a.Name.Local] = a.Value
		}
	}

	docs := make([]any, len(children))
	for i, c := range children {
		docs[i] = c.value
	}
	m["docs"] = docs
	return m, nil
}

// decodeValue decodes one typed element, consuming through its end tag.
func decodeValue(dec *xml.Decoder, se xml.StartElement) (any, error) {
	switch se.Name.Local {
	case "str":
		return readText(dec)
	case "int", "long":
		s, err := readText(dec)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("<%s> value", se.Name.Local), Err: err}
		}
		return n, nil
	case "float", "double":
		s, err := readText(dec)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("<%s> value", se.Name.Local), Err: err}
		}
		return f, nil
	case "bool":
		s, err := readText(dec)
		if err != nil {
			return nil, err
		}
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "t"), nil
	case "null":
		_, err := readText(dec)
		return nil, err
	case "date":
		s, err := readText(dec)
		if err != nil {
			return nil, err
		}
		t, err := ParseTime(strings.TrimSpace(s))
		if err != nil {
			return nil, &MalformedResponseError{Reason: "<date> value", Err: err}
		}
		return t, nil
	case "arr":
		children, err := decodeChildren(dec)
		if err != nil {
			return nil, err
		}
		vals := make([]any, len(children))
		for i, c := range children {
			vals[i] = c.value
		}
		return vals, nil
	case "doc":
		children, err := decodeChildren(dec)
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(children))
		for _, c := range children {
			m[c.name] = c.value
		}
		return m, nil
	case "lst":
		children, err := decodeChildren(dec)
		if err != nil {
			return nil, err
		}
		return lstToMap(children), nil
	case "result":
		// Results can nest, e.g. per-document moreLikeThis blocks.
		return decodeResult(dec, se)
	}
	return nil, &MalformedResponseError{Reason: fmt.Sprintf("unknown tag <%s>", se.Name.Local)}
}

type childNode struct {
	name  string
	value any
}

// decodeChildren decodes sibling elements until the enclosing end tag.
func decodeChildren(dec *xml.Decoder) ([]childNode, error) {
	var out []childNode
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, &MalformedResponseError{Reason: "invalid tag payload", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := decodeValue(dec, t)
			if err != nil {
				return nil, err
			}
			out = append(out, childNode{name: nameAttr(t), value: v})
		case xml.EndElement:
			return out, nil
		}
	}
}

// lstToMap builds a mapping from named entries. A name occurring more
// than once accumulates its values into a sequence in document order.
func lstToMap(children []childNode) map[string]any {
	m := make(map[string]any, len(children))
	count := make(map[string]int, len(children))
	for _, c := range children {
		switch count[c.name] {
		case 0:
			m[c.name] = c.value
		case 1:
			m[c.name] = []any{m[c.name], c.value}
		default:
			m[c.name] = append(m[c.name].([]any), c.value)
		}
		count[c.name]++
	}
	return m
}

// readText collects character data until the element's end tag.
func readText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", &MalformedResponseError{Reason: "invalid tag payload", Err: err}
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		case xml.StartElement:
			return "", &MalformedResponseError{Reason: fmt.Sprintf("unexpected element <%s> inside scalar", t.Name.Local)}
		}
	}
}

func nameAttr(se xml.StartElement) string {
	for _, a := range se.Attr {
		if a.Name.Local == "name" {
			return a.Value
		}
	}
	return ""
}
