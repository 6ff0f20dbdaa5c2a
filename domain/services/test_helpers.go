package services

import (
	"testing"
	"time"

	"piggyvault/config"
	"piggyvault/domain/entities"
	"piggyvault/domain/events"
	"piggyvault/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	TestOwner     = "owner:alice"
	TestFunder    = "vault:admin"
	TestDepositID = int64(55)
	TestPosition  = int64(77)
	TestPlanID    = int64(30)

	// 1000 whole units at 6 decimals
	TestPrincipal = int64(1_000_000_000)
)

// TestStart is the fixed clock reading all service tests begin at
var TestStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// TestMocks aggregates all repository and collaborator mocks for testing
type TestMocks struct {
	DepositRepo    *testhelpers.MockDepositRepository
	PositionRepo   *testhelpers.MockYieldPositionRepository
	PlanRepo       *testhelpers.MockSavingsPlanRepository
	PoolRepo       *testhelpers.MockRewardPoolRepository
	ConfigRepo     *testhelpers.MockVaultConfigRepository
	AccountRepo    *testhelpers.MockTokenAccountRepository
	LedgerRepo     *testhelpers.MockLedgerEntryRepository
	SummaryRepo    *testhelpers.MockUserSummaryRepository
	MilestoneRepo  *testhelpers.MockMilestoneRepository
	AccrualRunRepo *testhelpers.MockAccrualRunRepository
	Publisher      *testhelpers.MockEventPublisher
	Clock          *testhelpers.FakeClock
}

// NewTestMocks creates a new set of mocks with the clock at TestStart
func NewTestMocks() *TestMocks {
	return &TestMocks{
		DepositRepo:    &testhelpers.MockDepositRepository{},
		PositionRepo:   &testhelpers.MockYieldPositionRepository{},
		PlanRepo:       &testhelpers.MockSavingsPlanRepository{},
		PoolRepo:       &testhelpers.MockRewardPoolRepository{},
		ConfigRepo:     &testhelpers.MockVaultConfigRepository{},
		AccountRepo:    &testhelpers.MockTokenAccountRepository{},
		LedgerRepo:     &testhelpers.MockLedgerEntryRepository{},
		SummaryRepo:    &testhelpers.MockUserSummaryRepository{},
		MilestoneRepo:  &testhelpers.MockMilestoneRepository{},
		AccrualRunRepo: &testhelpers.MockAccrualRunRepository{},
		Publisher:      &testhelpers.MockEventPublisher{},
		Clock:          testhelpers.NewFakeClock(TestStart),
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.DepositRepo.AssertExpectations(t)
	m.PositionRepo.AssertExpectations(t)
	m.PlanRepo.AssertExpectations(t)
	m.PoolRepo.AssertExpectations(t)
	m.ConfigRepo.AssertExpectations(t)
	m.AccountRepo.AssertExpectations(t)
	m.LedgerRepo.AssertExpectations(t)
	m.SummaryRepo.AssertExpectations(t)
	m.MilestoneRepo.AssertExpectations(t)
	m.AccrualRunRepo.AssertExpectations(t)
	m.Publisher.AssertExpectations(t)
}

// SetupTestConfig configures the test environment
func SetupTestConfig(t *testing.T) {
	t.Helper()
	config.SetTestConfig(config.NewTestConfig())
}

// NewTestPlan builds a 30-day plan at 1200 bps with a 15-day minimum hold
func NewTestPlan() *entities.SavingsPlan {
	return &entities.SavingsPlan{
		ID:                        TestPlanID,
		DurationSeconds:           30 * 86400,
		BaseAPYBasisPoints:        1200,
		MinAmount:                 1_000_000,
		MaxAmount:                 1_000_000_000_000,
		PenaltyRateBasisPoints:    200,
		MinimumHoldSeconds:        15 * 86400,
		PlanMultiplierBasisPoints: entities.DefaultPlanMultiplierBasisPoints,
		Active:                    true,
	}
}

// NewTestPosition builds an active position opened at TestStart under the
// test plan's terms
func NewTestPosition() *entities.YieldPosition {
	return &entities.YieldPosition{
		ID:                      TestPosition,
		Principal:               TestPrincipal,
		AccruedInterest:         0,
		StartTime:               TestStart,
		EndTime:                 TestStart.Add(30 * 24 * time.Hour),
		EffectiveAPYBasisPoints: 1200,
		LastUpdateTime:          TestStart,
		IsActive:                true,
	}
}

// NewTestDeposit builds an open deposit matching NewTestPosition
func NewTestDeposit() *entities.Deposit {
	return &entities.Deposit{
		ID:         TestDepositID,
		Owner:      TestOwner,
		Amount:     TestPrincipal,
		PlanID:     TestPlanID,
		PositionID: TestPosition,
		CreatedAt:  TestStart,
		MaturityAt: TestStart.Add(30 * 24 * time.Hour),
		Status:     entities.DepositStatusOpen,
	}
}

// MockHelper provides common mock setup patterns
type MockHelper struct {
	mocks *TestMocks
}

// NewMockHelper creates a new mock helper
func NewMockHelper(mocks *TestMocks) *MockHelper {
	return &MockHelper{mocks: mocks}
}

// ExpectAnyEvents lets every publish succeed without asserting on it
func (h *MockHelper) ExpectAnyEvents() {
	h.mocks.Publisher.On("Publish", mock.Anything).Return(nil).Maybe()
}

// ExpectEventPublish requires one publish of the given event type
func (h *MockHelper) ExpectEventPublish(eventType events.EventType) {
	h.mocks.Publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == eventType
	})).Return(nil).Once()
}

// ExpectPlanLookup sets up the plan repository to return the plan
func (h *MockHelper) ExpectPlanLookup(plan *entities.SavingsPlan) {
	h.mocks.PlanRepo.On("GetByID", mock.Anything, plan.ID).Return(plan, nil)
}

// ExpectNeutralGlobalMultiplier sets up the vault config at 1.0x
func (h *MockHelper) ExpectNeutralGlobalMultiplier() {
	h.mocks.ConfigRepo.On("Get", mock.Anything).Return(&entities.VaultConfig{
		ID:                          1,
		GlobalMultiplierBasisPoints: 10000,
	}, nil)
}

// ExpectTransfer sets up the account and ledger mocks for one owner-treasury
// transfer. ownerBalance and treasuryBalance are the pre-transfer balances;
// ownerDelta is signed from the owner's perspective.
func (h *MockHelper) ExpectTransfer(owner string, ownerBalance, treasuryBalance, ownerDelta int64) {
	h.mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, owner).
		Return(&entities.TokenAccount{Owner: owner, Balance: ownerBalance}, nil).Once()
	h.mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, entities.TreasuryAccount).
		Return(&entities.TokenAccount{Owner: entities.TreasuryAccount, Balance: treasuryBalance}, nil).Once()
	h.mocks.AccountRepo.On("UpdateBalance", mock.Anything, owner, ownerBalance+ownerDelta).Return(nil).Once()
	h.mocks.AccountRepo.On("UpdateBalance", mock.Anything, entities.TreasuryAccount, treasuryBalance-ownerDelta).Return(nil).Once()
	h.mocks.LedgerRepo.On("Record", mock.Anything, mock.AnythingOfType("*entities.LedgerEntry")).Return(nil).Twice()
}

// ExpectMilestoneAward requires one successful award of the category
func (h *MockHelper) ExpectMilestoneAward(owner string, category entities.MilestoneCategory) {
	h.mocks.MilestoneRepo.On("TryAward", mock.Anything, owner, category, mock.AnythingOfType("time.Time")).
		Return(true, nil).Once()
}

// ExpectMilestoneAlreadyAwarded makes the category report as previously reached
func (h *MockHelper) ExpectMilestoneAlreadyAwarded(owner string, category entities.MilestoneCategory) {
	h.mocks.MilestoneRepo.On("TryAward", mock.Anything, owner, category, mock.AnythingOfType("time.Time")).
		Return(false, nil).Once()
}
