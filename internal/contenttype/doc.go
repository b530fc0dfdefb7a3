// Package contenttype turns raw content-type strings into the display
// categories used by the type index.
//
// The package is a dependency-free foundation: it holds the extension table
// used to guess a raw type from a file name and the pure classification
// function applied to every file during a scan.
//
// # Classification
//
// Well-known types map to friendly names:
//
//	contenttype.Classify("text/x-java").DisplayName()     // "Java"
//	contenttype.Classify("image/png").DisplayName()       // "Images"
//	contenttype.Classify("application/x-yaml").DisplayName() // "Yaml"
//	contenttype.Classify("model/gltf+json").DisplayName() // "model/gltf+json"
//
// Types under text/ and application/ that have no friendly name get their
// minor part, without an "x-" prefix, with the first letter upper-cased.
// Everything else keeps its raw spelling.
//
// # Ordering
//
// Compare puts every resolved category (one without a "/" in its display
// name) before the raw ones, and orders each group case-insensitively:
//
//	cats := []contenttype.Category{...}
//	contenttype.Sort(cats) // HTML, Java, PDFs, ..., model/gltf+json
//
// Two categories are equal when their display names match, so
// "text/javascript" and "application/javascript" group together.
package contenttype
