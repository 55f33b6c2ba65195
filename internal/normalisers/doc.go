// Package normalisers imports loose text files as documents. Each
// normaliser extracts a title and readable text from one format; Reader
// picks the highest priority normaliser for a file's extension.
package normalisers
