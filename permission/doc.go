// Package permission centralizes the role → capability mapping that the
// original front-end scattered across per-menu-item role lists.
//
// Capabilities are registered once into a [Registry], which assigns each a
// bit in a 64-bit mask. Roles are bound to capability sets through a
// [RoleManager]; every navigation filter and page-level role check consults
// the same manager instead of carrying its own role array.
//
// # What this package must NOT do
//
//   - Decide whether a request is authenticated (the gate does).
//   - Import eventgate or perform I/O.
package permission
