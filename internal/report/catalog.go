package report

import (
	"cmp"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/modscan/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// CatalogWriter renders the dataset as a Markdown catalog.
//
// Each organization gets a level one heading followed by a table. The
// first column describes the module, the remaining columns hold one link
// per configured version in which the module was found. Records for
// versions that are not configured are left out.
type CatalogWriter struct {
	baseWriter

	versions []string
}

// NewCatalogWriter creates a CatalogWriter with one column per version,
// in the given order.
func NewCatalogWriter(output io.Writer, versions []string) *CatalogWriter {
	return &CatalogWriter{
		baseWriter: newBaseWriter(output),
		versions:   slices.Clone(versions),
	}
}

// Write renders ds. Organizations without a module in any configured
// version are omitted, so an empty dataset produces no output.
func (w *CatalogWriter) Write(ds *model.Dataset) (int, error) {
	md := markdown.NewMarkdown(w.output)

	header := append([]string{""}, w.versions...)
	sections := 0
	for _, org := range groupByOrganization(ds.Records()) {
		rows := make([][]string, 0, len(org.modules))
		for _, mod := range org.modules {
			row, ok := w.row(mod)
			if !ok {
				continue
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			continue
		}

		// A table already ends with a newline, so the next heading only
		// needs the part separator to leave one blank line.
		md.H1(org.name)
		md.PlainText("")
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		sections++
	}
	if sections > 0 {
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// row builds the table row of one module. It reports false when none of
// the module's records belongs to a configured version.
func (w *CatalogWriter) row(mod moduleGroup) ([]string, bool) {
	row := make([]string, len(w.versions)+1)
	var summary, name string
	found := false
	for i, version := range w.versions {
		rec, ok := mod.byVersion[version]
		if !ok {
			continue
		}
		found = true
		row[i+1] = markdown.Link(version, linkTarget(rec.URL))
		if summary == "" {
			summary = rec.Summary
		}
		if name == "" {
			name = rec.Name
		}
	}
	if !found {
		return nil, false
	}
	row[0] = "<dl><dt>" + cellText(mod.name) + "</dt><dd>" + cellText(cmp.Or(summary, name)) + "</dd></dl>"
	return row, true
}

type organizationGroup struct {
	name    string
	modules []moduleGroup
}

type moduleGroup struct {
	name string
	// byVersion keeps the first record per version; records arrive ordered
	// by repository, so the lowest repository name wins.
	byVersion map[string]model.Record
}

// groupByOrganization splits records, already in catalog order, into
// organizations and modules.
func groupByOrganization(records []model.Record) []organizationGroup {
	var groups []organizationGroup
	for _, rec := range records {
		if len(groups) == 0 || groups[len(groups)-1].name != rec.Organization {
			groups = append(groups, organizationGroup{name: rec.Organization})
		}
		org := &groups[len(groups)-1]
		if len(org.modules) == 0 || org.modules[len(org.modules)-1].name != rec.Module {
			org.modules = append(org.modules, moduleGroup{
				name:      rec.Module,
				byVersion: make(map[string]model.Record),
			})
		}
		mod := &org.modules[len(org.modules)-1]
		if _, ok := mod.byVersion[rec.Version]; !ok {
			mod.byVersion[rec.Version] = rec
		}
	}
	return groups
}

var pipeEscaper = strings.NewReplacer("|", "&#124;")

// cellText makes s safe to place inside a table cell: NFC normalized,
// whitespace runs collapsed to single spaces, HTML escaped and with pipes
// escaped so they do not split the cell.
func cellText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return pipeEscaper.Replace(html.EscapeString(s))
}

var urlEscaper = strings.NewReplacer("|", "%7C", " ", "%20")

func linkTarget(url string) string {
	return urlEscaper.Replace(url)
}
