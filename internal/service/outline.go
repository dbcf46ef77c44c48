package service

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// notesOutline parses generated Markdown and returns the document title
// (first H1/H2) plus the list of section headings, used as a title fallback
// and as structural context for the mind-map prompt.
func notesOutline(markdown string) (string, []string) {
	md := goldmark.New()
	reader := text.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var title string
	var headings []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok {
			continue
		}
		txt := string(heading.Text(reader.Source()))
		if txt == "" {
			continue
		}
		if title == "" && heading.Level <= 2 {
			title = txt
		}
		if heading.Level <= 3 {
			headings = append(headings, txt)
		}
	}
	return title, headings
}
