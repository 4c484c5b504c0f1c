// Package memory keeps the chat history shown to the user.
//
// Model:
//   - History is display-only: it is never sent back to the model.
//   - Entries are kept newest first and capped per session.
//   - Transcripts can be saved to and loaded from JSON for the terminal chat.
package memory
