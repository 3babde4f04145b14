package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chepyr/project-tracker/internal/config"
	"github.com/chepyr/project-tracker/internal/db"
	"github.com/chepyr/project-tracker/internal/models"
	"github.com/google/uuid"
)

// in-memory stand-in for the token repository
type fakeTokenRepo struct {
	tokens map[string]*models.Token
	mutex  sync.Mutex
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*models.Token)}
}

func (f *fakeTokenRepo) Create(ctx context.Context, token *models.Token) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeTokenRepo) GetByToken(
	ctx context.Context, code string, purpose models.TokenPurpose,
) (*models.Token, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	token, ok := f.tokens[code]
	if !ok || token.Purpose != purpose {
		return nil, db.ErrNotFound
	}
	return token, nil
}

func (f *fakeTokenRepo) Consume(
	ctx context.Context, code string, purpose models.TokenPurpose,
) (*models.Token, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	token, ok := f.tokens[code]
	if !ok || token.Purpose != purpose {
		return nil, db.ErrNotFound
	}
	delete(f.tokens, code)
	return token, nil
}

func (f *fakeTokenRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for code, token := range f.tokens {
		if token.ID == id {
			delete(f.tokens, code)
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeleteForUser(
	ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose,
) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for code, token := range f.tokens {
		if token.UserID == userID && token.Purpose == purpose {
			delete(f.tokens, code)
		}
	}
	return nil
}

func newService(repo db.TokenRepositoryInterface, policy config.TokenPolicy) *TokenService {
	return NewTokenService(repo, policy, 7*24*time.Hour, 15*time.Minute)
}

func TestTokenService_IssueAndRedeem(t *testing.T) {
	repo := newFakeTokenRepo()
	s := newService(repo, config.TokenPolicyAllowMany)
	ctx := context.Background()
	userID := uuid.New()

	token, err := s.Issue(ctx, userID, models.TokenPurposeConfirmation)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := s.Redeem(ctx, token.Token, models.TokenPurposeConfirmation)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if got != userID {
		t.Errorf("redeemed for %s, want %s", got, userID)
	}

	// single use: the second redemption must miss
	if _, err := s.Redeem(ctx, token.Token, models.TokenPurposeConfirmation); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second redemption: want ErrTokenNotFound, got %v", err)
	}
}

func TestTokenService_CrossPurposeRedemptionFails(t *testing.T) {
	repo := newFakeTokenRepo()
	s := newService(repo, config.TokenPolicyAllowMany)
	ctx := context.Background()

	token, err := s.Issue(ctx, uuid.New(), models.TokenPurposePasswordReset)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Redeem(ctx, token.Token, models.TokenPurposeConfirmation); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("reset code redeemed as confirmation: %v", err)
	}
	// the failed cross-purpose attempt must not consume the code
	if _, err := s.Redeem(ctx, token.Token, models.TokenPurposePasswordReset); err != nil {
		t.Errorf("code should still redeem for its own purpose: %v", err)
	}
}

func TestTokenService_ValidateDoesNotConsume(t *testing.T) {
	repo := newFakeTokenRepo()
	s := newService(repo, config.TokenPolicyAllowMany)
	ctx := context.Background()

	token, err := s.Issue(ctx, uuid.New(), models.TokenPurposePasswordReset)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Validate(ctx, token.Token, models.TokenPurposePasswordReset); err != nil {
			t.Fatalf("Validate attempt %d: %v", i+1, err)
		}
	}
	if _, err := s.Redeem(ctx, token.Token, models.TokenPurposePasswordReset); err != nil {
		t.Errorf("Redeem after Validate: %v", err)
	}
}

func TestTokenService_Expiry(t *testing.T) {
	repo := newFakeTokenRepo()
	s := newService(repo, config.TokenPolicyAllowMany)
	ctx := context.Background()

	token, err := s.Issue(ctx, uuid.New(), models.TokenPurposePasswordReset)
	if err != nil {
		t.Fatal(err)
	}

	// move the clock past the reset TTL
	s.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	if err := s.Validate(ctx, token.Token, models.TokenPurposePasswordReset); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate: want ErrTokenExpired, got %v", err)
	}
	// the expired row is gone now
	if err := s.Validate(ctx, token.Token, models.TokenPurposePasswordReset); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Validate after removal: want ErrTokenNotFound, got %v", err)
	}
}

func TestTokenService_RedeemExpired(t *testing.T) {
	repo := newFakeTokenRepo()
	s := newService(repo, config.TokenPolicyAllowMany)
	ctx := context.Background()

	token, err := s.Issue(ctx, uuid.New(), models.TokenPurposeConfirmation)
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	if _, err := s.Redeem(ctx, token.Token, models.TokenPurposeConfirmation); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
	if _, err := s.Redeem(ctx, token.Token, models.TokenPurposeConfirmation); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expired token must be gone, got %v", err)
	}
}

func TestTokenService_Policies(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	// allow-many: requesting a new code keeps the old one redeemable
	many := newService(newFakeTokenRepo(), config.TokenPolicyAllowMany)
	first, _ := many.Issue(ctx, userID, models.TokenPurposeConfirmation)
	second, _ := many.Issue(ctx, userID, models.TokenPurposeConfirmation)
	if err := many.Validate(ctx, first.Token, models.TokenPurposeConfirmation); err != nil {
		t.Errorf("allow-many: first code should stay active: %v", err)
	}
	if err := many.Validate(ctx, second.Token, models.TokenPurposeConfirmation); err != nil {
		t.Errorf("allow-many: second code should be active: %v", err)
	}

	// single-active: a new code invalidates the prior one
	single := newService(newFakeTokenRepo(), config.TokenPolicySingleActive)
	first, _ = single.Issue(ctx, userID, models.TokenPurposeConfirmation)
	second, _ = single.Issue(ctx, userID, models.TokenPurposeConfirmation)
	if err := single.Validate(ctx, first.Token, models.TokenPurposeConfirmation); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("single-active: first code should be invalidated, got %v", err)
	}
	if err := single.Validate(ctx, second.Token, models.TokenPurposeConfirmation); err != nil {
		t.Errorf("single-active: second code should be active: %v", err)
	}
}

func TestTokenService_ConcurrentRedemption(t *testing.T) {
	repo := newFakeTokenRepo()
	s := newService(repo, config.TokenPolicyAllowMany)
	ctx := context.Background()

	token, err := s.Issue(ctx, uuid.New(), models.TokenPurposeConfirmation)
	if err != nil {
		t.Fatal(err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = s.Redeem(ctx, token.Token, models.TokenPurposeConfirmation)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrTokenNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("exactly one redemption must win, got %d", winners)
	}
}
