// Package favorites keeps a usage-ranked, size-bounded list of favorite paths
// for a project.
//
// Each favorite is a child node of the namespace, named by the escaped path
// and holding:
//
//	name   original relative path
//	value  usage count
//	seq    first-use order, used to break count ties
//	state  "removed" on tombstoned entries only
//
// Removing a favorite writes a tombstone; the next load deletes it. Records
// with a non-positive value, as written by older versions, are treated as
// tombstones too. Records missing a name or with an unparsable count are
// skipped and left in place.
//
// The capacity and minimum-usage policy is not stored here; callers pass it
// to [Store.Snapshot] each time.
package favorites
