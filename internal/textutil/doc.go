// Package textutil provides text fingerprinting, similarity scoring, and
// slug helpers shared by the review stage and the tracker label scheme.
package textutil
