// Package repositories implements SQLite persistence for the frequency ledger and the card cache.
//
// Key Implementations:
//   - [LedgerRepository] : frequency-ranked words with the pending/in-deck/skipped lifecycle
//   - [CardCacheRepository] : generated cards keyed by normalized word
//
// Every mutating operation runs in a single transaction that is committed before it returns,
// so each command invocation leaves the database durable. Lookups report absence with a
// boolean rather than an error; errors are reserved for storage failures.
//
// Both databases are opened with a single connection (see [shared.NewDatabase]). Row sets are
// always drained and closed before the next statement runs on the same transaction.
package repositories
