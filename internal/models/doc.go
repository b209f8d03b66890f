// Package models contains the typed records served by the itemgraph API and
// the decoding rules that turn raw store documents into them.
package models
