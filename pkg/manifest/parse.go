package manifest

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/rostree/rostree/pkg/errors"
)

// supported manifest format versions (REP 140 / REP 149).
var supportedFormats = map[string]bool{"": true, "1": true, "2": true, "3": true}

// ParseFile reads and parses the package.xml at path.
//
// include restricts which dependency kinds are collected; nil collects
// every kind. Parse failures are returned as PARSE_ERROR, never as an
// empty Package.
func ParseFile(path string, include KindSet) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read manifest %s", path)
	}
	pkg, err := Parse(data, include)
	if err != nil {
		return nil, err
	}
	pkg.Path = path
	return pkg, nil
}

// Parse parses an in-memory package.xml document. This variant serves
// manifests obtained from non-filesystem sources, such as the output of
// "ros2 pkg xml". Same rules as ParseFile.
//
// The parse is structural: a streaming XML decode over the document,
// so multi-line tags, attributes, and nested markup inside
// <description> are handled correctly. Dependency declarations keep
// their document order across tags.
func Parse(data []byte, include KindSet) (*Package, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	root, err := rootElement(dec)
	if err != nil {
		return nil, err
	}
	if root.Name.Local != "package" {
		return nil, errors.New(errors.ErrCodeParse, "root element is <%s>, want <package>", root.Name.Local)
	}
	for _, attr := range root.Attr {
		if attr.Name.Local == "format" && !supportedFormats[attr.Value] {
			return nil, errors.New(errors.ErrCodeParse, "unsupported manifest format %q", attr.Value)
		}
	}

	pkg := &Package{}
	seen := make(map[string]bool)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "malformed manifest")
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		// Direct children of <package> only. elementText consumes the
		// element, so the decoder never descends further.
		switch tag := se.Name.Local; tag {
		case "name":
			pkg.Name, err = elementText(dec, se)
		case "version":
			pkg.Version, err = elementText(dec, se)
		case "description":
			pkg.Description, err = elementText(dec, se)
		default:
			kind, isDep := kindForTag(tag)
			if !isDep {
				err = dec.Skip()
				break
			}
			var name string
			name, err = elementText(dec, se)
			if err != nil {
				break
			}
			if !include.Has(kind) || !IsPackageName(name) || seen[name] {
				break
			}
			seen[name] = true
			pkg.Dependencies = append(pkg.Dependencies, Dependency{Name: name, Kind: kind})
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "malformed manifest")
		}
	}

	if pkg.Name == "" {
		return nil, errors.New(errors.ErrCodeParse, "manifest has no <name> element")
	}
	return pkg, nil
}

// rootElement advances the decoder to the document's first element.
func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, errors.Wrap(errors.ErrCodeParse, err, "not a well-formed XML document")
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// elementText consumes the element started by se and returns its
// character data, trimmed and with internal whitespace collapsed.
// Nested elements (formatting markup inside <description>) contribute
// their text, not their tags.
func elementText(dec *xml.Decoder, se xml.StartElement) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	return strings.Join(strings.Fields(b.String()), " "), nil
}
