// Package project wires a directory into an ad-hoc project: a type index over
// its files, a favorites store and a small set of settings, all persisted in
// a prefs.Store.
//
// Settings live in a node named ";;" followed by the directory path with
// path separators replaced by underscores. Keys:
//
//	name                display name, defaults to the directory name
//	charset             IANA charset name, defaults to UTF-8
//	maxFavorites        favorites snapshot capacity, defaults to 20
//	favoriteUsageCount  minimum uses before a favorite shows, defaults to 1
//
// The favorites themselves are children of the "favorites" node below it.
// Registered directories are listed under "__projects"; lookups against that
// list are cached for RegistryTTL.
package project
