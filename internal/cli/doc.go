/*
Package cli implements the adhoc-index command line.

Every command resolves configuration through the startup package, opens the
preference database and the project rooted at --root, does its work and
closes everything again. Only watch keeps running: it starts the filesystem
watcher and prints category and favorites changes until interrupted.

	adhoc-index types
	adhoc-index files PDFs
	adhoc-index favorites use docs/guide.pdf
	adhoc-index favorites list
	adhoc-index --root ~/src/app watch

Output is styled with lipgloss when standard output is a terminal and plain
otherwise, so it can be piped.
*/
package cli
