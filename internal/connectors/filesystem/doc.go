// Package filesystem finds transcript files on local disk: it resolves
// file:// URIs, scans directories, and watches a directory for new
// transcripts.
package filesystem
