// Package dedupe suppresses repeated WhatsApp message IDs within a sliding
// time window so a message redelivered after a reconnect is forwarded once.
package dedupe
