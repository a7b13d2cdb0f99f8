// CLAUDE:SUMMARY Offline availability verdict over a saved HTML dump, mirroring the browser XPath rule.
// Package inspect evaluates the option toggle rule against static HTML
// parsed with golang.org/x/net/html. It follows the same rule the browser
// probe expresses in XPath:
//
//	//div[contains(@class,'name') and contains(text(), FRAGMENT)]
//	    /ancestor::label/preceding-sibling::input
//
// It is used on the debug_page.html artifact captured by a failed run.
package inspect

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
)

// File parses the HTML file at path and inspects it.
func File(path, fragment string) (availability.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return availability.Result{}, fmt.Errorf("inspect: open: %w", err)
	}
	defer f.Close()
	return Reader(f, fragment)
}

// Reader parses r as HTML and inspects it.
func Reader(r io.Reader, fragment string) (availability.Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return availability.Result{}, fmt.Errorf("inspect: parse: %w", err)
	}
	return Document(doc, fragment), nil
}

// Document inspects an already parsed tree.
func Document(doc *html.Node, fragment string) availability.Result {
	if hasErrorPage(doc) {
		return availability.NotFound("page no longer exists")
	}
	opt := findOption(doc, fragment)
	if opt == nil {
		return availability.NotFound("option not found")
	}
	toggle := toggleFor(opt)
	if toggle == nil {
		return availability.NotFound("toggle control not found")
	}
	_, disabled := attr(toggle, "disabled")
	aria, _ := attr(toggle, "aria-disabled")
	return availability.Verdict(availability.FromToggle(disabled, aria))
}

// findOption returns the first div, in document order, whose class attribute
// contains "name" and whose first text child contains fragment. contains()
// on text() in XPath 1.0 only looks at the first text node.
func findOption(root *html.Node, fragment string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Div {
			class, _ := attr(n, "class")
			if strings.Contains(class, "name") {
				if txt := firstText(n); txt != nil && strings.Contains(txt.Data, fragment) {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// toggleFor resolves ancestor::label/preceding-sibling::input, taking the
// first match in document order. Every label ancestor counts. An outer
// label's preceding siblings come before anything inside it, so labels are
// tried outermost first.
func toggleFor(opt *html.Node) *html.Node {
	var labels []*html.Node
	for n := opt.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.Label {
			labels = append(labels, n)
		}
	}
	for i := len(labels) - 1; i >= 0; i-- {
		label := labels[i]
		if label.Parent == nil {
			continue
		}
		for c := label.Parent.FirstChild; c != nil && c != label; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Input {
				return c
			}
		}
	}
	return nil
}

func hasErrorPage(root *html.Node) bool {
	var hit bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if hit {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Div {
			class, _ := attr(n, "class")
			if strings.Contains(class, "error-page") || strings.Contains(class, "404") {
				hit = true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return hit
}

func firstText(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
