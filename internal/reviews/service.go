package reviews

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

type Store interface {
	PurchaseStore
	InsertReview(ctx context.Context, r *Review) (*Review, error)
	ApproveReview(ctx context.Context, id int64) (*Review, error)
	DeleteReview(ctx context.Context, id int64) (*Review, error)
	ApprovedRatings(ctx context.Context, productID int64) ([]int, error)
	SetProductRating(ctx context.Context, productID int64, rating float64, count int) error
	ProductIDs(ctx context.Context) ([]int64, error)
	ListByProduct(ctx context.Context, productID int64) ([]Review, error)
	ListAll(ctx context.Context) ([]Review, error)
}

// Service owns the review lifecycle. Every mutation ends with a rating
// recompute on the affected product; the cached rating/reviews columns are
// never written from anywhere else.
type Service struct {
	Store Store
}

func (s *Service) Eligibility() *EligibilityChecker {
	return &EligibilityChecker{Store: s.Store}
}

// Create inserts an unapproved review. Eligibility is re-checked here rather
// than trusted from the client; the unique (user_id, product_id) index backs
// the duplicate check under concurrency.
func (s *Service) Create(ctx context.Context, userID, productID int64, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if err := s.Eligibility().Check(ctx, userID, productID); err != nil {
		return nil, err
	}
	r, err := s.Store.InsertReview(ctx, &Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
		Approved:  false,
	})
	if errors.Is(err, ErrAlreadyReviewed) {
		// lost a race with a concurrent submission by the same user
		return nil, &IneligibleError{Reason: ReasonAlreadyReviewed}
	}
	if err != nil {
		return nil, err
	}
	// No visible effect while the review is unapproved, but the recompute runs
	// unconditionally so the cached columns never depend on the approval policy.
	if err := s.Recompute(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Approve(ctx context.Context, id int64) (*Review, error) {
	r, err := s.Store.ApproveReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Recompute(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes the review and returns its prior state.
func (s *Service) Delete(ctx context.Context, id int64) (*Review, error) {
	r, err := s.Store.DeleteReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Recompute(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// Recompute re-derives the product's cached rating and review count from its
// approved reviews: the count of that set and the arithmetic mean of its
// ratings, or 0 for an empty set. Idempotent.
func (s *Service) Recompute(ctx context.Context, productID int64) error {
	ratings, err := s.Store.ApprovedRatings(ctx, productID)
	if err != nil {
		return err
	}
	var avg float64
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r
		}
		avg = float64(sum) / float64(len(ratings))
	}
	return s.Store.SetProductRating(ctx, productID, avg, len(ratings))
}

// ResetAll recomputes every product's cached rating from scratch. This is the
// repair path for when the cached columns are suspected to have drifted.
func (s *Service) ResetAll(ctx context.Context) (int, error) {
	ids, err := s.Store.ProductIDs(ctx)
	if err != nil {
		return 0, err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		id := id
		g.Go(func() error { return s.Recompute(ctx, id) })
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ListByProduct returns only approved reviews, newest first.
func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]Review, error) {
	return s.Store.ListByProduct(ctx, productID)
}

// ListAll returns every review, approved or not, with user and product context.
func (s *Service) ListAll(ctx context.Context) ([]Review, error) {
	return s.Store.ListAll(ctx)
}
