package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/jmylchreest/sitemd/internal/crawler"
)

// RenderAggregate joins aggregate blocks into the website.md document.
func RenderAggregate(blocks []string) string {
	return strings.Join(blocks, "\n")
}

// RenderContents writes a Markdown table of contents for the index: one row
// per recorded page, grouped by path in index order.
func RenderContents(w io.Writer, idx *crawler.SiteIndex) error {
	md := markdown.NewMarkdown(w)

	md.H1("Site Contents")
	md.PlainText("")

	if idx.Len() == 0 {
		md.PlainText("No pages were crawled.")
		return md.Build()
	}

	var rows [][]string
	for _, path := range idx.Paths() {
		for _, ref := range idx.Refs(path) {
			rows = append(rows, []string{
				"`" + path + "`",
				tableCell(ref.Title),
				fmt.Sprintf("[%s](%s/%s)", ref.File, PagesDir, ref.File),
				ref.URL,
			})
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Path", "Title", "File", "URL"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("%d pages under %d paths.", idx.Len(), len(idx.Paths()))

	return md.Build()
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
