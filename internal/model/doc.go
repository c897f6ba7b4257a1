// Package model defines the data structures shared by the crawler, the
// persistence layer and the catalog renderer.
//
// The central types are:
//   - Key: the identity of a module observation (organization, repository,
//     version, module)
//   - Record: one observation of a module at a release version
//   - Dataset: the accumulated mapping of Key to Record
//
// Records are serializable to JSON for export and are stored column by column
// in the SQLite database.
package model
