// Package report renders a module dataset for people and tools.
//
// CatalogWriter produces the Markdown catalog: one section per
// organization, one table row per module and one column per configured
// release version, each cell linking to the module directory. JSONWriter
// exports every record for tooling, and SummaryWriter prints a plain-text
// overview suited to a terminal.
//
// All writers implement Writer and render from a *model.Dataset without
// modifying it. WriteFile places any writer's output on an afero.Fs.
package report
