// Package state keeps per-user conversation memory for the bot.
// It holds one pending value per user for the lifetime of the process.
package state
