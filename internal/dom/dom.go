// Package dom reads the target application's screens from an HTML snapshot.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Doc is a parsed page snapshot.
type Doc struct {
	root *html.Node
}

// Parse parses a page snapshot.
func Parse(content string) (*Doc, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	return &Doc{root: root}, nil
}

// MustParse is Parse for fixtures.
func MustParse(content string) *Doc {
	d, err := Parse(content)
	if err != nil {
		panic(err)
	}
	return d
}

// Option is one entry of a select element.
type Option struct {
	Value    string
	Text     string
	Selected bool
}

// Element is the subset of a form control the insertion engine needs.
type Element struct {
	Tag     string
	Type    string
	Value   string
	Checked bool
	Options []Option
}

// IsSelect reports whether e is a dropdown.
func (e Element) IsSelect() bool { return e.Tag == "select" }

// IsCheckbox reports whether e is a checkbox input.
func (e Element) IsCheckbox() bool { return e.Tag == "input" && e.Type == "checkbox" }

// Element returns the control with the given id and how many elements carry
// that id. A count other than 1 means the id does not identify one control.
func (d *Doc) Element(id string) (Element, int) {
	nodes := findAll(d.root, func(n *html.Node) bool { return attr(n, "id") == id })
	if len(nodes) == 0 {
		return Element{}, 0
	}
	n := nodes[0]
	e := Element{
		Tag:   n.Data,
		Type:  strings.ToLower(attr(n, "type")),
		Value: attr(n, "value"),
	}
	_, e.Checked = lookupAttr(n, "checked")
	if e.Tag == "select" {
		for _, o := range findAll(n, func(c *html.Node) bool { return c.Data == "option" }) {
			_, sel := lookupAttr(o, "selected")
			e.Options = append(e.Options, Option{
				Value:    optionValue(o),
				Text:     strings.TrimSpace(text(o)),
				Selected: sel,
			})
		}
	}
	return e, len(nodes)
}

// SelectPopulated reports whether the select with the given id has at least
// one option carrying a non-empty value.
func (d *Doc) SelectPopulated(id string) bool {
	e, n := d.Element(id)
	if n == 0 || !e.IsSelect() {
		return false
	}
	for _, o := range e.Options {
		if strings.TrimSpace(o.Value) != "" {
			return true
		}
	}
	return false
}

// Popup is the state of the application's modal alert.
type Popup struct {
	Visible bool
	Title   string
	Text    string
}

// Popup returns the first `.sweet-alert` element's state.
func (d *Doc) Popup() Popup {
	n := findFirst(d.root, func(n *html.Node) bool { return hasClass(n, "sweet-alert") })
	if n == nil {
		return Popup{}
	}
	p := Popup{Visible: hasClass(n, "visible")}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "h2":
			p.Title += strings.TrimSpace(text(c))
		case "p":
			p.Text += strings.TrimSpace(text(c))
		}
	}
	return p
}

// ResultRow is one row of the search results grid.
type ResultRow struct {
	Index     int
	StarsNo   string
	UnhcrNo   string
	FirstName string
	LastName  string
}

// ResultRows returns the `tr.grid-row` rows of the results listing.
func (d *Doc) ResultRows() []ResultRow {
	var rows []ResultRow
	for i, tr := range findAll(d.root, func(n *html.Node) bool { return n.Data == "tr" && hasClass(n, "grid-row") }) {
		row := ResultRow{Index: i}
		for _, td := range findAll(tr, func(n *html.Node) bool { return n.Data == "td" }) {
			v := strings.TrimSpace(text(td))
			switch attr(td, "data-name") {
			case "NRU_NO":
				row.StarsNo = v
			case "HO_REF_NO":
				row.UnhcrNo = v
			case "ForeName":
				row.FirstName = v
			case "SurName":
				row.LastName = v
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ServiceRow is one row of the client's services table.
type ServiceRow struct {
	Index       int
	Description string
	Live        bool
}

// ServiceRows returns the rows of `table.webGrid tbody`. The description is
// the third cell; a row is live when its checkbox is checked.
func (d *Doc) ServiceRows() []ServiceRow {
	table := findFirst(d.root, func(n *html.Node) bool { return n.Data == "table" && hasClass(n, "webGrid") })
	if table == nil {
		return nil
	}
	var rows []ServiceRow
	for _, body := range findAll(table, func(n *html.Node) bool { return n.Data == "tbody" }) {
		for _, tr := range findAll(body, func(n *html.Node) bool { return n.Data == "tr" }) {
			cells := findAll(tr, func(n *html.Node) bool { return n.Data == "td" })
			row := ServiceRow{Index: len(rows)}
			if len(cells) > 2 {
				row.Description = strings.TrimSpace(text(cells[2]))
			}
			row.Live = findFirst(tr, func(n *html.Node) bool {
				_, checked := lookupAttr(n, "checked")
				return n.Data == "input" && strings.EqualFold(attr(n, "type"), "checkbox") && checked
			}) != nil
			rows = append(rows, row)
		}
	}
	return rows
}

// VulnerabilityLabels maps the upper-cased text of every label inside
// form#postClntVulSubmit to the id of the checkbox it labels.
func (d *Doc) VulnerabilityLabels() map[string]string {
	out := map[string]string{}
	form := findFirst(d.root, func(n *html.Node) bool { return n.Data == "form" && attr(n, "id") == "postClntVulSubmit" })
	if form == nil {
		return out
	}
	for _, l := range findAll(form, func(n *html.Node) bool { return n.Data == "label" }) {
		name := strings.ToUpper(strings.TrimSpace(text(l)))
		if name == "" {
			continue
		}
		out[name] = attr(l, "for")
	}
	return out
}

func optionValue(o *html.Node) string {
	if v, ok := lookupAttr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(text(o))
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if all := findAll(root, match); len(all) > 0 {
		return all[0]
	}
	return nil
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
