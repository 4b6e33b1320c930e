package policy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service is the engine's entry point. It owns the resolver and the
// evaluator and wraps every call's reader in a call-scoped cache so a single
// decision never re-reads the same record.
type Service struct {
	reader    DirectoryReader
	resolver  *Resolver
	evaluator *Evaluator
}

func NewService(reader DirectoryReader, maxDepth int) *Service {
	resolver := NewResolver(maxDepth)
	return &Service{
		reader:    reader,
		resolver:  resolver,
		evaluator: NewEvaluator(resolver),
	}
}

// Authorize evaluates one action of the viewer over the subject. orgID is
// required for org-scoped actions and ignored otherwise.
func (s *Service) Authorize(ctx context.Context, viewerID, subjectID uuid.UUID, orgID *uuid.UUID, action Action) (bool, error) {
	start := time.Now()
	allowed, err := s.evaluator.Allows(ctx, NewCachedReader(s.reader), viewerID, subjectID, orgID, action)
	if err == nil {
		recordDecisionMetrics(action, allowed, time.Since(start))
	}
	return allowed, err
}

// ManagersOf lists the transitive manager chain of the person within the
// organization subtree, nearest first.
func (s *Service) ManagersOf(ctx context.Context, personID, orgID uuid.UUID) ([]Entry, error) {
	return s.resolver.ManagersOf(ctx, NewCachedReader(s.reader), personID, orgID)
}

// ReportsOf lists the transitive reports of the person within the
// organization subtree, nearest first.
func (s *Service) ReportsOf(ctx context.Context, personID, orgID uuid.UUID) ([]Entry, error) {
	return s.resolver.ReportsOf(ctx, NewCachedReader(s.reader), personID, orgID)
}

// Manages reports whether the viewer is in the subject's manager chain
// within the organization subtree.
func (s *Service) Manages(ctx context.Context, viewerID, subjectID, orgID uuid.UUID) (bool, error) {
	return s.evaluator.manages(ctx, NewCachedReader(s.reader), viewerID, subjectID, orgID)
}

// Relationships computes the viewer's relationship sets used by content
// visibility decisions: the viewer's own teammate ids and the teammate ids
// of their direct reports, across every organization.
func (s *Service) Relationships(ctx context.Context, viewerID uuid.UUID) (ViewerRelationships, error) {
	return ResolveViewerRelationships(ctx, NewCachedReader(s.reader), viewerID)
}
