package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/modscan/internal/model"
)

// SummaryWriter outputs a plain-text overview of the dataset for terminal
// display: totals first, then the number of modules per organization and
// version.
type SummaryWriter struct {
	baseWriter

	versions []string

	// showEmpty controls whether versions without modules are listed.
	showEmpty bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithShowEmpty lists versions in which an organization has no module.
func WithShowEmpty(show bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.showEmpty = show
	}
}

// NewSummaryWriter creates a SummaryWriter. Versions fixes the order in
// which per-version counts are listed; versions present in the dataset but
// missing from the list follow in sorted order.
func NewSummaryWriter(output io.Writer, versions []string, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{
		baseWriter: newBaseWriter(output),
		versions:   slices.Clone(versions),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the overview of ds.
func (w *SummaryWriter) Write(ds *model.Dataset) (int, error) {
	records := ds.Records()
	groups := groupByOrganization(records)

	var sb strings.Builder
	w.writeHeader(&sb, records, groups)
	for _, org := range groups {
		w.writeOrganization(&sb, org)
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SummaryWriter) writeHeader(sb *strings.Builder, records []model.Record, groups []organizationGroup) {
	modules := 0
	for _, org := range groups {
		modules += len(org.modules)
	}
	repositories := make(map[string]struct{})
	for _, rec := range records {
		repositories[rec.Organization+"/"+rec.Repository] = struct{}{}
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                           MODULE DATASET\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Organizations:  %d\n", len(groups))
	fmt.Fprintf(sb, "Repositories:   %d\n", len(repositories))
	fmt.Fprintf(sb, "Modules:        %d\n", modules)
	fmt.Fprintf(sb, "Records:        %d\n", len(records))
	sb.WriteString("\n")
}

func (w *SummaryWriter) writeOrganization(sb *strings.Builder, org organizationGroup) {
	counts := make(map[string]int)
	for _, mod := range org.modules {
		for version := range mod.byVersion {
			counts[version]++
		}
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%s (%d modules)\n", org.name, len(org.modules))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, version := range w.versionOrder(counts) {
		n := counts[version]
		if n == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "  %-8s %d\n", version, n)
	}
	sb.WriteString("\n")
}

// versionOrder returns the configured versions followed by any other
// version found in counts.
func (w *SummaryWriter) versionOrder(counts map[string]int) []string {
	order := slices.Clone(w.versions)
	var extra []string
	for version := range counts {
		if !slices.Contains(order, version) {
			extra = append(extra, version)
		}
	}
	slices.Sort(extra)
	return append(order, extra...)
}
