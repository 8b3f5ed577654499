// Package context carries request-scoped values used for log correlation.
package context

type contextKey string
