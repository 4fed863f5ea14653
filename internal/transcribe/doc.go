// Package transcribe turns downloaded sermon audio into plain text by
// driving the local whisper CLI and reading back its JSON output.
package transcribe
