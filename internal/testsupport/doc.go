// Package testsupport provides shared helpers for package tests: temp-backed
// configs, opened stores, and canned fixture data.
package testsupport
