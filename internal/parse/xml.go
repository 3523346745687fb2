package parse

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// UBL 2.x namespace URIs. Well-formed e-invoices qualify their elements with
// these; sloppy exports often drop the namespaces entirely, so every lookup
// falls back to a local-name-only match when the qualified path finds
// nothing.
const (
	nsCAC = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCBC = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

var xmlPrefixNS = map[string]string{"cac": nsCAC, "cbc": nsCBC}

// XMLExtractor reads UBL invoice documents. External entities are never
// resolved by encoding/xml, and documents carrying a DTD are rejected
// outright, so entity-expansion payloads cannot reach the field extraction.
type XMLExtractor struct{}

func (XMLExtractor) Extract(data []byte) (*ParsedInvoice, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	inv := &ParsedInvoice{Items: []ParsedLine{}, RawText: string(data)}
	inv.InvoiceNumber = findXMLText(root, "cbc:ID")
	inv.InvoiceDate = findXMLText(root, "cbc:IssueDate")
	inv.Supplier = findXMLText(root, "cac:AccountingSupplierParty", "cbc:Name")

	total := findXMLText(root, "cac:LegalMonetaryTotal", "cbc:TaxInclusiveAmount")
	if total == "" {
		total = findXMLText(root, "cac:LegalMonetaryTotal", "cbc:PayableAmount")
	}
	if d, ok := ParseDecimal(total); ok {
		inv.TotalAmount = &d
	}

	for _, lineNode := range findXMLAll(root, "cac:InvoiceLine") {
		line := extractXMLLine(lineNode)
		if line.Description == "" && line.Quantity.IsZero() {
			continue
		}
		inv.Items = append(inv.Items, line)
	}
	return inv, nil
}

func extractXMLLine(n *xmlNode) ParsedLine {
	var line ParsedLine
	line.Description = findXMLText(n, "cac:Item", "cbc:Description")
	if line.Description == "" {
		line.Description = findXMLText(n, "cac:Item", "cbc:Name")
	}
	line.SKU = findXMLText(n, "cac:Item", "cac:SellersItemIdentification", "cbc:ID")

	if qty := findXMLNode(n, "cbc:InvoicedQuantity"); qty != nil {
		if d, ok := ParseDecimal(qty.text.String()); ok {
			line.Quantity = d
		}
		line.Unit = qty.attr("unitCode")
	}
	if d, ok := ParseDecimal(findXMLText(n, "cac:Price", "cbc:PriceAmount")); ok {
		line.UnitPrice = &d
	}
	if d, ok := ParseDecimal(findXMLText(n, "cbc:LineExtensionAmount")); ok {
		line.TotalPrice = &d
	}
	if d, ok := ParseDecimal(findXMLText(n, "cac:Item", "cac:ClassifiedTaxCategory", "cbc:Percent")); ok {
		line.TaxPercent = &d
	}
	line.DeriveTotal()
	return line
}

type xmlNode struct {
	name     xml.Name
	attrs    []xml.Attr
	text     strings.Builder
	children []*xmlNode
}

func (n *xmlNode) attr(local string) string {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func parseXMLTree(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.Directive:
			if bytes.HasPrefix(bytes.TrimSpace(t), []byte("DOCTYPE")) {
				return nil, fmt.Errorf("document type definitions are not allowed")
			}
		case xml.StartElement:
			n := &xmlNode{name: t.Name, attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = n
			} else {
				p := stack[len(stack)-1]
				p.children = append(p.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

// findXMLNode walks a qualified path of prefix:Local steps, searching
// descendants at each step. If the qualified path matches nothing, the same
// path is retried comparing local names only.
func findXMLNode(n *xmlNode, path ...string) *xmlNode {
	if m := findXMLStep(n, path, true); m != nil {
		return m
	}
	return findXMLStep(n, path, false)
}

func findXMLText(n *xmlNode, path ...string) string {
	m := findXMLNode(n, path...)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m.text.String())
}

func findXMLStep(n *xmlNode, path []string, qualified bool) *xmlNode {
	if len(path) == 0 {
		return n
	}
	for _, d := range descendants(n) {
		if matchXMLName(d.name, path[0], qualified) {
			if m := findXMLStep(d, path[1:], qualified); m != nil {
				return m
			}
		}
	}
	return nil
}

// findXMLAll collects every descendant matching a single step, preferring
// namespace-qualified matches and falling back to local names.
func findXMLAll(n *xmlNode, step string) []*xmlNode {
	var qualified, loose []*xmlNode
	for _, d := range descendants(n) {
		if matchXMLName(d.name, step, true) {
			qualified = append(qualified, d)
		}
		if matchXMLName(d.name, step, false) {
			loose = append(loose, d)
		}
	}
	if len(qualified) > 0 {
		return qualified
	}
	return loose
}

func matchXMLName(name xml.Name, step string, qualified bool) bool {
	prefix, local, ok := strings.Cut(step, ":")
	if !ok {
		local, prefix = prefix, ""
	}
	if name.Local != local {
		return false
	}
	if !qualified {
		return true
	}
	return name.Space == xmlPrefixNS[prefix]
}

// descendants returns all elements below n in document order.
func descendants(n *xmlNode) []*xmlNode {
	var out []*xmlNode
	var walk func(*xmlNode)
	walk = func(c *xmlNode) {
		for _, ch := range c.children {
			out = append(out, ch)
			walk(ch)
		}
	}
	walk(n)
	return out
}
