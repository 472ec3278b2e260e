package reviews

import "context"

// PurchaseStore is the read-only slice of the store the eligibility check needs.
type PurchaseStore interface {
	HasPurchased(ctx context.Context, userID, productID int64) (bool, error)
	HasReviewed(ctx context.Context, userID, productID int64) (bool, error)
}

type EligibilityChecker struct {
	Store PurchaseStore
}

// Check returns nil when the user may review the product, or an
// *IneligibleError with the refusal reason. The purchase check runs before the
// duplicate check: a user who never bought the product gets the purchase
// message even if a stray review row exists. Unknown user or product ids fall
// out as "not purchased".
func (c *EligibilityChecker) Check(ctx context.Context, userID, productID int64) error {
	purchased, err := c.Store.HasPurchased(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !purchased {
		return &IneligibleError{Reason: ReasonNotPurchased}
	}
	reviewed, err := c.Store.HasReviewed(ctx, userID, productID)
	if err != nil {
		return err
	}
	if reviewed {
		return &IneligibleError{Reason: ReasonAlreadyReviewed}
	}
	return nil
}
