// Package nodeconfig gives node configurations a typed shape per subtype.
//
// The canvas stores configuration as an opaque map. This package is the
// configuration sub-form's side of that contract: it describes which fields a
// subtype's form shows (Form), converts loosely typed submitted values into a
// typed Config (Decode), validates them, and produces the map the canvas merges
// into the node (Config.Values).
//
// Submitted values go through cty so that form inputs arriving as numbers,
// booleans or nested JSON are coerced the same way configuration files are.
package nodeconfig
