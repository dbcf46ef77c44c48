package fetch

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	skipTags = map[string]struct{}{
		"script": {}, "style": {}, "nav": {}, "footer": {},
		"header": {}, "form": {}, "aside": {}, "figure": {}, "img": {},
	}
	textTags = map[string]struct{}{
		"p": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
		"li": {}, "pre": {}, "code": {}, "blockquote": {}, "td": {},
	}
	contentClassRegex = regexp.MustCompile(`(?i)content|main|post|body`)
	blankLinesRegex   = regexp.MustCompile(`\n{3,}`)
)

// ExtractText pulls readable text out of an HTML page. It prefers the most
// article-like container it can find, then collects text-bearing block
// elements from it, capped at limit characters.
func ExtractText(page []byte, limit int) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	root := findContentRoot(doc)
	if root == nil {
		return ""
	}
	var blocks []string
	collectBlocks(root, &blocks)
	text := strings.Join(blocks, "\n\n")
	text = blankLinesRegex.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if limit > 0 && len(text) > limit {
		text = text[:limit]
	}
	return text
}

// ExtractTitle returns og:title if present, else the <title> text.
func ExtractTitle(page []byte) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	var title, ogTitle string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				if attr(n, "property") == "og:title" {
					ogTitle = strings.TrimSpace(attr(n, "content"))
				}
			case "title":
				if title == "" {
					title = strings.TrimSpace(nodeText(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if ogTitle != "" {
		return ogTitle
	}
	return title
}

// findContentRoot picks the best container in priority order: <article>,
// <main>, role="main", a div whose class smells like page content, then
// <body> as a last resort.
func findContentRoot(doc *html.Node) *html.Node {
	if n := findFirst(doc, func(n *html.Node) bool { return n.Data == "article" }); n != nil {
		return n
	}
	if n := findFirst(doc, func(n *html.Node) bool { return n.Data == "main" }); n != nil {
		return n
	}
	if n := findFirst(doc, func(n *html.Node) bool { return attr(n, "role") == "main" }); n != nil {
		return n
	}
	if n := findFirst(doc, func(n *html.Node) bool {
		return n.Data == "div" && contentClassRegex.MatchString(attr(n, "class"))
	}); n != nil {
		return n
	}
	return findFirst(doc, func(n *html.Node) bool { return n.Data == "body" })
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func collectBlocks(n *html.Node, out *[]string) {
	if n.Type == html.ElementNode {
		if _, skip := skipTags[n.Data]; skip {
			return
		}
		if _, ok := textTags[n.Data]; ok {
			if text := strings.TrimSpace(nodeText(n)); text != "" {
				*out = append(*out, text)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, out)
	}
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipTags[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
