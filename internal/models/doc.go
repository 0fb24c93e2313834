// Package models defines the domain entities shared by the ledger, the card cache,
// the APKG reader/writer, and the command layer.
//
// The package contains two categories of types:
//
// 1. Ledger entities: rows of the frequency ledger and their aggregates
//   - [FrequencyEntry] : one word of the imported frequency list with its status
//   - [ImportRow] : a raw, unparsed row of a frequency CSV
//   - [ImportStats] : counts produced by an import
//   - [StatusSummary] : totals and 500-wide rank buckets for the dashboard
//
// 2. Deck entities: flashcard content moving between the generator, cache, and packages
//   - [Note] : one note of the six-field note type
//   - [GeneratedCard] : structured card content returned by the generator
//   - [CacheStats] : card cache counts per model
//
// Entities are plain structs; repositories map rows to and from them explicitly.
package models
