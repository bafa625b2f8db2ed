// Package whatsapp is the session.Provider backed by whatsmeow.
//
// The device store lives in an SQLite database (whatsmeow.db) under the
// session directory, so a restarted bridge reconnects without a new QR scan.
// Chat ids crossing the package boundary use the "<number>@c.us" form; they
// are mapped to and from whatsmeow JIDs here.
//
// Automatic reconnects are disabled. The session manager decides when to
// destroy and re-initialize the client.
package whatsapp
