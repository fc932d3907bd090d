// Package logging configures structured JSON logging for otherwords.
//
// Logs go to a size-rotated file under ~/.otherwords/logs, optionally tee'd
// to stderr. Commands that speak a protocol on stdout (mcp) log to the file
// only.
package logging
