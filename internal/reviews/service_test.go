package reviews

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productStats struct {
	rating float64
	count  int
}

// fakeStore is an in-memory Store backed by maps, with the same uniqueness
// guarantee the database index provides.
type fakeStore struct {
	mu        sync.Mutex
	purchases map[[2]int64]bool // (userID, productID)
	reviews   map[int64]*Review
	nextID    int64
	products  map[int64]*productStats

	// simulates losing the eligibility race: the duplicate pre-check misses
	// the other row, only the insert catches it
	skipDuplicateCheck bool

	recomputes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		purchases: map[[2]int64]bool{},
		reviews:   map[int64]*Review{},
		products:  map[int64]*productStats{},
	}
}

func (f *fakeStore) addPurchase(userID, productID int64) {
	f.purchases[[2]int64{userID, productID}] = true
}

func (f *fakeStore) addProduct(id int64) {
	f.products[id] = &productStats{}
}

func (f *fakeStore) HasPurchased(_ context.Context, userID, productID int64) (bool, error) {
	return f.purchases[[2]int64{userID, productID}], nil
}

func (f *fakeStore) HasReviewed(_ context.Context, userID, productID int64) (bool, error) {
	if f.skipDuplicateCheck {
		return false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.UserID == userID && r.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertReview(_ context.Context, rv *Review) (*Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.UserID == rv.UserID && r.ProductID == rv.ProductID {
			return nil, ErrAlreadyReviewed
		}
	}
	f.nextID++
	rv.ID = f.nextID
	cp := *rv
	f.reviews[rv.ID] = &cp
	return rv, nil
}

func (f *fakeStore) ApproveReview(_ context.Context, id int64) (*Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Approved = true
	cp := *r
	return &cp, nil
}

func (f *fakeStore) DeleteReview(_ context.Context, id int64) (*Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(f.reviews, id)
	return r, nil
}

func (f *fakeStore) ApprovedRatings(_ context.Context, productID int64) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, r := range f.reviews {
		if r.ProductID == productID && r.Approved {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

func (f *fakeStore) SetProductRating(_ context.Context, productID int64, rating float64, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputes++
	p, ok := f.products[productID]
	if !ok {
		p = &productStats{}
		f.products[productID] = p
	}
	p.rating = rating
	p.count = count
	return nil
}

func (f *fakeStore) ProductIDs(_ context.Context) ([]int64, error) {
	var out []int64
	for id := range f.products {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeStore) ListByProduct(_ context.Context, productID int64) ([]Review, error) {
	var out []Review
	for _, r := range f.reviews {
		if r.ProductID == productID && r.Approved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]Review, error) {
	var out []Review
	for _, r := range f.reviews {
		out = append(out, *r)
	}
	return out, nil
}

func TestEligibilityOrdering(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addProduct(10)
	checker := &EligibilityChecker{Store: store}

	// never purchased: refused with the purchase reason, even though a stray
	// review row exists for the pair
	store.reviews[99] = &Review{ID: 99, UserID: 1, ProductID: 10, Rating: 4}
	err := checker.Check(ctx, 1, 10)
	var inel *IneligibleError
	require.ErrorAs(t, err, &inel)
	assert.Equal(t, ReasonNotPurchased, inel.Reason)
	delete(store.reviews, 99)

	// purchased and already reviewed: duplicate reason
	store.addPurchase(1, 10)
	store.reviews[99] = &Review{ID: 99, UserID: 1, ProductID: 10, Rating: 4}
	err = checker.Check(ctx, 1, 10)
	require.ErrorAs(t, err, &inel)
	assert.Equal(t, ReasonAlreadyReviewed, inel.Reason)
	delete(store.reviews, 99)

	// purchased, not yet reviewed: eligible
	assert.NoError(t, checker.Check(ctx, 1, 10))
}

func TestCreateValidatesRatingBounds(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addProduct(10)
	store.addPurchase(1, 10)
	svc := &Service{Store: store}

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Create(ctx, 1, 10, rating, "")
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}
	assert.Empty(t, store.reviews)
}

func TestCreateInsertsUnapprovedAndRecomputes(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addProduct(10)
	store.addPurchase(1, 10)
	svc := &Service{Store: store}

	rv, err := svc.Create(ctx, 1, 10, 5, "great")
	require.NoError(t, err)
	assert.False(t, rv.Approved)
	assert.NotZero(t, rv.ID)

	// the recompute ran, but unapproved reviews are excluded from the cache
	assert.Equal(t, 1, store.recomputes)
	assert.Equal(t, 0.0, store.products[10].rating)
	assert.Equal(t, 0, store.products[10].count)
}

func TestCreateLosingDuplicateRace(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addProduct(10)
	store.addPurchase(1, 10)
	store.reviews[1] = &Review{ID: 1, UserID: 1, ProductID: 10, Rating: 3}
	store.skipDuplicateCheck = true
	svc := &Service{Store: store}

	_, err := svc.Create(ctx, 1, 10, 5, "")
	var inel *IneligibleError
	require.ErrorAs(t, err, &inel)
	assert.Equal(t, ReasonAlreadyReviewed, inel.Reason)
	assert.Len(t, store.reviews, 1, "no duplicate row survives")
}

func TestApproveAndDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	svc := &Service{Store: newFakeStore()}

	_, err := svc.Approve(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Delete(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecomputeMeanCountAndIdempotence(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addProduct(10)
	store.reviews[1] = &Review{ID: 1, UserID: 1, ProductID: 10, Rating: 5, Approved: true}
	store.reviews[2] = &Review{ID: 2, UserID: 2, ProductID: 10, Rating: 4, Approved: true}
	store.reviews[3] = &Review{ID: 3, UserID: 3, ProductID: 10, Rating: 1, Approved: false}
	svc := &Service{Store: store}

	require.NoError(t, svc.Recompute(ctx, 10))
	assert.InDelta(t, 4.5, store.products[10].rating, 1e-9)
	assert.Equal(t, 2, store.products[10].count)

	// no intervening mutation: second run leaves the values unchanged
	require.NoError(t, svc.Recompute(ctx, 10))
	assert.InDelta(t, 4.5, store.products[10].rating, 1e-9)
	assert.Equal(t, 2, store.products[10].count)
}

func TestRecomputeEmptySetIsZero(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addProduct(10)
	store.products[10] = &productStats{rating: 4.2, count: 7} // drifted cache
	svc := &Service{Store: store}

	require.NoError(t, svc.Recompute(ctx, 10))
	assert.Equal(t, 0.0, store.products[10].rating)
	assert.Equal(t, 0, store.products[10].count)
}

func TestResetAllRepairsDrift(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addProduct(10)
	store.addProduct(20)
	store.addProduct(30)
	store.reviews[1] = &Review{ID: 1, UserID: 1, ProductID: 20, Rating: 2, Approved: true}
	store.products[10] = &productStats{rating: 5, count: 3} // drifted
	svc := &Service{Store: store}

	n, err := svc.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0.0, store.products[10].rating)
	assert.Equal(t, 0, store.products[10].count)
	assert.Equal(t, 2.0, store.products[20].rating)
	assert.Equal(t, 1, store.products[20].count)
}

func TestReviewLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addProduct(10)
	svc := &Service{Store: store}

	// an existing approved review from another shopper
	store.reviews[1] = &Review{ID: 1, UserID: 9, ProductID: 10, Rating: 3, Approved: true}
	store.nextID = 1
	require.NoError(t, svc.Recompute(ctx, 10))

	// user 1 buys the product and reviews it with a 5
	store.addPurchase(1, 10)
	rv, err := svc.Create(ctx, 1, 10, 5, "love it")
	require.NoError(t, err)
	assert.False(t, rv.Approved)
	assert.Equal(t, 3.0, store.products[10].rating, "unapproved review not counted yet")
	assert.Equal(t, 1, store.products[10].count)

	// admin approves: mean now includes the 5
	_, err = svc.Approve(ctx, rv.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, store.products[10].rating, 1e-9)
	assert.Equal(t, 2, store.products[10].count)

	// admin deletes it again: back to the prior state
	deleted, err := svc.Delete(ctx, rv.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Approved, "prior state is returned")
	assert.Equal(t, 3.0, store.products[10].rating)
	assert.Equal(t, 1, store.products[10].count)
}
