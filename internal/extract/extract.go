// Package extract reads the few facts the validator needs out of OpenClinica
// HTML pages, and turns rule text with markup into plain text.
package extract

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// ErrNotFound is returned when a page lacks the element being looked for.
var ErrNotFound = errors.New("element not found")

// Page is a parsed HTML page.
type Page struct {
	root *html.Node
}

// Parse parses an HTML document.
func Parse(input []byte) (*Page, error) {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	return &Page{root: node}, nil
}

// CurrentStudy returns the name of the active study shown in the study info
// box (div#StudyInfo > b > a).
func (p *Page) CurrentStudy() (string, error) {
	info := findFirst(p.root, func(n *html.Node) bool {
		return isElement(n, "div") && attr(n, "id") == "StudyInfo"
	})
	if info == nil {
		return "", ErrNotFound
	}
	for b := info.FirstChild; b != nil; b = b.NextSibling {
		if !isElement(b, "b") {
			continue
		}
		for a := b.FirstChild; a != nil; a = a.NextSibling {
			if isElement(a, "a") {
				return Text(a), nil
			}
		}
	}
	return "", ErrNotFound
}

// ActionsFired returns the value of the table cell that follows the
// "Actions Fired" label on a rule test result page, usually "Y" or "N".
func (p *Page) ActionsFired() (string, error) {
	label := findFirst(p.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && ownTextContains(n, "Actions Fired")
	})
	if label == nil {
		return "", ErrNotFound
	}
	for s := label.NextSibling; s != nil; s = s.NextSibling {
		if isElement(s, "td") {
			return Text(s), nil
		}
	}
	return "", ErrNotFound
}

// Text returns the text content of n with whitespace collapsed.
func Text(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n)
	return collapseSpaces(strings.TrimSpace(b.String()))
}

// PlainText strips markup and entities from a rule message or description,
// e.g. "Age &gt; 17<br/>required" becomes "Age > 17 required".
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpaces(strings.TrimSpace(b.String()))
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if match(cur) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// ownTextContains checks the direct text children of n only, so ancestors of
// the label do not match.
func ownTextContains(n *html.Node, s string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.Contains(c.Data, s) {
			return true
		}
	}
	return false
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			return
		case "br":
			b.WriteString(" ")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
