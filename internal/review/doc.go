// Package review deduplicates and classifies extracted requirements before
// test generation. It runs only in the staged pipeline mode.
package review
