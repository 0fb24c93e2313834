// Package ui implements the interactive terminal pieces of greekdeck using bubbletea's Elm architecture.
//
// Each prompt is a small [tea.Model] run as its own program:
//  1. [ReviewPrompt] : show a generated card and accept (a), regenerate (r) or skip (s) it
//  2. [Confirm] : a y/n question before spending API calls
//  3. [PromptSecret] : masked input for the API key
//
// Programs read from and write to the streams they are given, so the models can be driven in tests by
// feeding [tea.KeyMsg] values to Update directly.
//
// Dashboards (status, pending words, cache coverage) are rendered as static [lipgloss/table] tables.
package ui
