// Package datahelpers reads, writes, and reshapes nested map/slice trees
// addressed by dot-paths.
//
// The root package is a convenience facade over the subpackages:
//
//   - dotpath parses "user.orders.*.id" style paths
//   - access resolves reads (wildcards included) and produces updated
//     trees for set, merge, and remove
//   - expr parses and evaluates "{{ path | filter ?? default }}"
//     expressions
//   - filters holds the built-in and pluggable value filters
//   - query filters, sorts, groups, and aggregates record arrays
//   - mapper runs declarative mapping passes between trees, with
//     lifecycle hooks and YAML/HCL mapping definitions
//
// The facade functions use permissive defaults; construct the package
// types directly for strict modes, custom filters, hooks, or error
// collection.
package datahelpers
