package facts

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arenalabs/phaseflow/internal/model"
)

// Provider contributes phase-type-specific extension facts. One
// implementation exists per supported phase type; NewProviderSet registers
// them all, so adding a phase type without a provider is a visible gap in one
// place rather than a silent string-lookup miss.
type Provider interface {
	PhaseType() model.PhaseType
	Collect(ctx context.Context, challengeID string) (Record, error)
}

// NewProviderSet builds the typed provider mapping over the given services.
// Phase types without extension facts (Post-Mortem) have no entry; the
// assembler treats that as an empty contribution.
func NewProviderSet(svc Services) map[model.PhaseType]Provider {
	providers := []Provider{
		registrationProvider{svc},
		submissionProvider{svc, model.PhaseSubmission},
		submissionProvider{svc, model.PhaseCheckpointSubmission},
		reviewProvider{svc},
		iterativeReviewProvider{svc},
		appealsProvider{svc, model.PhaseAppeals},
		appealsProvider{svc, model.PhaseAppealsResponse},
	}
	set := make(map[model.PhaseType]Provider, len(providers))
	for _, p := range providers {
		set[p.PhaseType()] = p
	}
	return set
}

type registrationProvider struct {
	svc Services
}

func (p registrationProvider) PhaseType() model.PhaseType { return model.PhaseRegistration }

func (p registrationProvider) Collect(ctx context.Context, challengeID string) (Record, error) {
	count, err := p.svc.RegistrantCount(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return Record{
		FactRegistrantCount:     count,
		FactNumberOfRegistrants: count,
	}, nil
}

// submissionProvider serves both Submission and Checkpoint Submission: the
// same facts apply, only the phase type key differs.
type submissionProvider struct {
	svc       Services
	phaseType model.PhaseType
}

func (p submissionProvider) PhaseType() model.PhaseType { return p.phaseType }

// Collect fetches the submission count and review status concurrently; they
// come from independent services. Either failure aborts the whole fetch.
func (p submissionProvider) Collect(ctx context.Context, challengeID string) (Record, error) {
	var (
		count  int
		status ReviewStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = p.svc.SubmissionCount(gctx, challengeID)
		return err
	})
	g.Go(func() error {
		var err error
		status, err = p.svc.SubmissionReviewStatus(gctx, challengeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Record{
		FactSubmissionCount:                count,
		FactNumberOfSubmissions:            count,
		FactHasActiveUnreviewedSubmissions: status.HasUnreviewed,
	}, nil
}

type reviewProvider struct {
	svc Services
}

func (p reviewProvider) PhaseType() model.PhaseType { return model.PhaseReview }

func (p reviewProvider) Collect(ctx context.Context, challengeID string) (Record, error) {
	status, err := p.svc.SubmissionReviewStatus(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return Record{FactAllSubmissionsReviewed: status.AllReviewed}, nil
}

type iterativeReviewProvider struct {
	svc Services
}

func (p iterativeReviewProvider) PhaseType() model.PhaseType { return model.PhaseIterativeReview }

func (p iterativeReviewProvider) Collect(ctx context.Context, challengeID string) (Record, error) {
	status, err := p.svc.SubmissionReviewStatus(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return Record{FactHasActiveUnreviewedSubmissions: status.HasUnreviewed}, nil
}

// appealsProvider serves both Appeals and Appeals Response.
type appealsProvider struct {
	svc       Services
	phaseType model.PhaseType
}

func (p appealsProvider) PhaseType() model.PhaseType { return p.phaseType }

func (p appealsProvider) Collect(ctx context.Context, challengeID string) (Record, error) {
	status, err := p.svc.AppealsStatus(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return Record{FactAllAppealsResolved: status.AllResolved}, nil
}
