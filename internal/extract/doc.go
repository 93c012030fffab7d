// Package extract turns cleaned transcript text into structured business
// requirements via the language model, repairing malformed responses and
// assigning stable sequential identifiers.
package extract
