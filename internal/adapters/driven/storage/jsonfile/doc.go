// Package jsonfile persists the conversation state as a single JSON
// document: an array of sessions, each carrying its turns.
package jsonfile
