// Package file reads corpus documents from local files and watches those
// files for changes.
//
// Supported formats:
//   - .json: an array of documents, or a single document object
//   - .jsonl, .ndjson: one document object per line
//   - .yaml, .yml: a sequence of documents, or a single document mapping
//
// A document object has title, content, optional id and chunk_id, and a
// flat metadata object as understood by domain.ParseMetadata.
package file
