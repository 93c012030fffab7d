// Package testgen generates the three canonical BDD scenarios for each
// requirement and normalizes Gherkin into stable single-line form.
package testgen
