package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"piggyvault/config"
	"piggyvault/domain/entities"
)

// mockVaultOps stands in for the application facade behind every handler
type mockVaultOps struct {
	mock.Mock
}

func (m *mockVaultOps) CreateDeposit(ctx context.Context, owner string, amount, planID int64) (*entities.DepositResult, error) {
	args := m.Called(ctx, owner, amount, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DepositResult), args.Error(1)
}

func (m *mockVaultOps) Withdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error) {
	args := m.Called(ctx, owner, depositID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalResult), args.Error(1)
}

func (m *mockVaultOps) EmergencyWithdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error) {
	args := m.Called(ctx, owner, depositID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalResult), args.Error(1)
}

func (m *mockVaultOps) GetDeposit(ctx context.Context, depositID int64) (*entities.Deposit, error) {
	args := m.Called(ctx, depositID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Deposit), args.Error(1)
}

func (m *mockVaultOps) CalculateCurrentInterest(ctx context.Context, depositID int64) (int64, error) {
	args := m.Called(ctx, depositID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockVaultOps) ListDeposits(ctx context.Context, owner string) ([]*entities.Deposit, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Deposit), args.Error(1)
}

func (m *mockVaultOps) GetUserSummary(ctx context.Context, owner string) (*entities.UserSummary, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserSummary), args.Error(1)
}

func (m *mockVaultOps) GetPlan(ctx context.Context, planID int64) (*entities.SavingsPlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SavingsPlan), args.Error(1)
}

func (m *mockVaultOps) ListPlans(ctx context.Context, activeOnly bool) ([]*entities.SavingsPlan, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SavingsPlan), args.Error(1)
}

func (m *mockVaultOps) SetPlan(ctx context.Context, plan *entities.SavingsPlan) (*entities.SavingsPlan, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SavingsPlan), args.Error(1)
}

func (m *mockVaultOps) SetPlanMultiplier(ctx context.Context, planID, multiplierBasisPoints int64) error {
	args := m.Called(ctx, planID, multiplierBasisPoints)
	return args.Error(0)
}

func (m *mockVaultOps) SetGlobalMultiplier(ctx context.Context, multiplierBasisPoints int64) error {
	args := m.Called(ctx, multiplierBasisPoints)
	return args.Error(0)
}

func (m *mockVaultOps) FundRewardPool(ctx context.Context, funder string, amount int64) (*entities.RewardPool, error) {
	args := m.Called(ctx, funder, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPool), args.Error(1)
}

// stubHealthChecker fakes the database ping behind /health
type stubHealthChecker struct {
	err error
}

func (s *stubHealthChecker) Ping(ctx context.Context) error {
	return s.err
}

// routerFixture drives requests through the full route tree so URL params
// and middleware run exactly as in production
type routerFixture struct {
	ops     *mockVaultOps
	handler http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	config.SetTestConfig(config.NewTestConfig())

	ops := &mockVaultOps{}
	limiter := NewRateLimiter(config.Get().RateLimitPerMinute)
	t.Cleanup(limiter.Stop)

	handler := NewRouter(&RouterDeps{
		Deposits:    ops,
		Plans:       ops,
		Admin:       ops,
		Health:      &stubHealthChecker{},
		AdminToken:  config.Get().AdminToken,
		RateLimiter: limiter,
	})
	return &routerFixture{ops: ops, handler: handler}
}

func (f *routerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	return f.doWithHeaders(method, path, body, nil)
}

func (f *routerFixture) doAdmin(method, path, body string) *httptest.ResponseRecorder {
	return f.doWithHeaders(method, path, body, map[string]string{
		"Authorization": "Bearer " + config.Get().AdminToken,
	})
}

func (f *routerFixture) doWithHeaders(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:49152"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(target))
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	decodeBody(t, rec, &resp)
	return resp
}
