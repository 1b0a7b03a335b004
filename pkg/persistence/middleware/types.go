// Package middleware wraps a SubmissionStore with privacy behavior:
// field masking and at-rest encryption of collected answers.
package middleware

import "github.com/aretw0/formflow/pkg/ports"

// Middleware allows wrapping a SubmissionStore to add behavior.
type Middleware func(ports.SubmissionStore) ports.SubmissionStore

// Chain wraps store so that mws[0] is the outermost layer.
func Chain(store ports.SubmissionStore, mws ...Middleware) ports.SubmissionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
