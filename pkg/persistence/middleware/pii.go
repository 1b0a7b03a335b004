package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// Masked replaces the stored value of a masked variable.
const Masked = "***"

type piiMiddleware struct {
	next   ports.SubmissionStore
	masked func(name string) bool
}

// MaskMatcher compiles patterns into a predicate over variable names.
func MaskMatcher(patternStrings []string) (func(name string) bool, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(name string) bool {
		for _, p := range patterns {
			if p.MatchString(name) {
				return true
			}
		}
		return false
	}, nil
}

// NewPII creates a middleware that masks variables whose name matches one of
// the patterns before they are persisted. Masked answers cannot be restored,
// so the flow must never read them back; see validator.CheckMask.
func NewPII(patternStrings []string) (Middleware, error) {
	masked, err := MaskMatcher(patternStrings)
	if err != nil {
		return nil, err
	}
	return func(next ports.SubmissionStore) ports.SubmissionStore {
		return &piiMiddleware{next: next, masked: masked}
	}, nil
}

func (m *piiMiddleware) Create(ctx context.Context, sub *domain.Submission) error {
	return m.next.Create(ctx, m.mask(sub))
}

func (m *piiMiddleware) Save(ctx context.Context, sub *domain.Submission) error {
	return m.next.Save(ctx, m.mask(sub))
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Submission, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask works on a clone so the engine's in-memory submission is untouched.
func (m *piiMiddleware) mask(sub *domain.Submission) *domain.Submission {
	cloned := sub.Clone()
	for k, v := range cloned.Data {
		if v != nil && m.masked(k) {
			cloned.Data[k] = Masked
		}
	}
	for i, h := range cloned.StepHistory {
		if h.VariableName != "" && m.masked(h.VariableName) {
			cloned.StepHistory[i].Answer = Masked
		}
	}
	return cloned
}
