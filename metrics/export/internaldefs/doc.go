// Package internaldefs holds the exporter-facing metric catalog: the stable
// names, help strings, and histogram bucket bounds for every counter and
// histogram the engine tracks.
//
// Exporters render from this catalog rather than hardcoding names, so a
// metric renamed here is renamed everywhere at once and no exporter can
// drift from the others.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
