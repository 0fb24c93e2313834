// Package tasks runs the deck workflows on top of the ledger, the card cache and the generator.
//
// # Workflows
//
// [DeckEngine] implements each command that touches more than one store:
//
//  1. [DeckEngine.Sync] : marks pending ledger words found in a deck's Back fields
//  2. [DeckEngine.Add] and [DeckEngine.AddBatch] : generate, review and package new cards
//  3. [DeckEngine.BuildDeck] : assembles a shareable deck for a rank range from cached cards
//  4. [DeckEngine.Enrich] and [DeckEngine.Refresh] : regenerate content for existing notes,
//     keeping their GUIDs so that importing overwrites them
//  5. [DeckEngine.Coverage] : counts cached cards per rank bucket
//
// # Review
//
// Every generated card passes a [Reviewer], which accepts, skips or asks for a regeneration.
// Regeneration bypasses the cache. A word gets at most three attempts.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends never block:
// when the channel is full the update is dropped.
//
// # Pacing
//
// Calls to the generator go through a [rate.Limiter] built from the configured delay, so
// consecutive API calls are at least that far apart. Cache hits are not paced.
package tasks
