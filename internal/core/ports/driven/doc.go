// Package driven declares what the core needs from the outside world:
// vectors from an embedder, documents from a store or a corpus file, text
// from normalisers, and somewhere to keep sessions and settings.
//
// Only the domain package may be imported here.
package driven
