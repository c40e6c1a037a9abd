// Package llm provides access to the hosted language model for expense
// extraction. Every request goes through a Gateway that rotates over the
// credential pool, failing over on quota exhaustion and stopping on any other
// upstream error.
package llm
