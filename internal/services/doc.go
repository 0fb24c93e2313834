// Package services talks to the card generation API and the OS credential store.
//
// [ClaudeService] implements [Generator] over the Anthropic Messages API: one prompt per word,
// a JSON object back, decoded into a [models.GeneratedCard]. Replies are allowed to wrap the
// object in prose or a fenced code block; see [ExtractJSON].
//
// API keys are resolved by [ResolveAPIKey], which prefers the OS keyring ([SystemKeyStore])
// over configuration and the ANTHROPIC_API_KEY environment variable.
package services
