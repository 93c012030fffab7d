// Package web serves the approval UI: a small set of forms over the store
// for reviewing draft requirements, approving them, and triggering a
// tracker sync, plus JSON endpoints for scripting.
package web
