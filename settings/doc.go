// Package settings persists the durable state of the workflow: the list
// of activated users with their device credentials, and the ledger of
// already downloaded books.
//
// State is stored as a single JSON document addressed by an afs URL, so
// file://, mem:// and other schemes work interchangeably. An optional
// encryption key switches the store to scy-encrypted storage.
package settings
