// Package domain holds scholar's shared vocabulary: documents and their
// per-source metadata, ranked search results, conversation sessions and
// turns, settings, and the sentinel errors that cross package lines.
//
// Nothing here imports another package of this module.
package domain
