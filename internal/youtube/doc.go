// Package youtube discovers channel videos and acquires their content.
//
// Metadata comes from scraping the JSON payloads YouTube embeds in its
// pages (ytInitialData on channel pages, ytInitialPlayerResponse on watch
// pages) rather than from the official API, so no API key is needed.
// Caption tracks are fetched from the timedtext endpoint in json3 form and
// reduced to plain text. Audio downloads shell out to yt-dlp.
package youtube
