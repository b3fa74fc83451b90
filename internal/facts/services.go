package facts

import "context"

// ReviewStatus summarizes review progress for a challenge's submissions.
type ReviewStatus struct {
	AllReviewed   bool
	HasUnreviewed bool
}

// AppealsStatus summarizes appeal resolution for a challenge.
type AppealsStatus struct {
	AllResolved bool
}

// Services are the external collaborators that supply live challenge state.
// Every call is fallible I/O: a failure aborts the advancement before any
// phase is mutated. Implementations must honor ctx cancellation.
type Services interface {
	RegistrantCount(ctx context.Context, challengeID string) (int, error)
	SubmissionCount(ctx context.Context, challengeID string) (int, error)
	SubmissionReviewStatus(ctx context.Context, challengeID string) (ReviewStatus, error)
	AppealsStatus(ctx context.Context, challengeID string) (AppealsStatus, error)
}

// StaticServices is a Services implementation backed by fixed values, used by
// the CLI's dry-run mode and by tests.
type StaticServices struct {
	Registrants int
	Submissions int
	Review      ReviewStatus
	Appeals     AppealsStatus

	// Err, when set, is returned by every call.
	Err error
}

func (s StaticServices) RegistrantCount(ctx context.Context, challengeID string) (int, error) {
	if err := firstErr(ctx, s.Err); err != nil {
		return 0, err
	}
	return s.Registrants, nil
}

func (s StaticServices) SubmissionCount(ctx context.Context, challengeID string) (int, error) {
	if err := firstErr(ctx, s.Err); err != nil {
		return 0, err
	}
	return s.Submissions, nil
}

func (s StaticServices) SubmissionReviewStatus(ctx context.Context, challengeID string) (ReviewStatus, error) {
	if err := firstErr(ctx, s.Err); err != nil {
		return ReviewStatus{}, err
	}
	return s.Review, nil
}

func (s StaticServices) AppealsStatus(ctx context.Context, challengeID string) (AppealsStatus, error) {
	if err := firstErr(ctx, s.Err); err != nil {
		return AppealsStatus{}, err
	}
	return s.Appeals, nil
}

func firstErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
