package incentive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/sekex/internal/clock"
	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/ledger"
	"github.com/LeJamon/sekex/internal/orderbook"
	"github.com/LeJamon/sekex/internal/registry"
)

const (
	owner      ledger.AccountID = "owner"
	obEscrow   ledger.AccountID = "ob-escrow"
	incEscrow  ledger.AccountID = "inc-escrow"
	feeColl    ledger.AccountID = "fee-collector"
	treasury   ledger.AccountID = "acme-treasury"
	usdtAsset  ledger.AssetID   = "usdt"
)

type harness struct {
	l     *ledger.Ledger
	r     *registry.Registry
	ob    *orderbook.OrderBook
	inc   *Incentive
	token ledger.AssetID
	clk   *clock.Manual
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	l := ledger.New(owner)
	rec := &events.Recorder{}
	r := registry.New(owner, l, rec)

	iss, err := r.DeployIssuer(owner, "Acme Inc", "ACME", 10_000_000, usdtAsset, treasury)
	require.NoError(t, err)

	clk := clock.NewManual(1_000)
	ob := orderbook.New(owner, l, r, obEscrow, feeColl, clk, rec)
	inc := New(owner, l, r, ob, usdtAsset, incEscrow, clk, rec)

	return &harness{l: l, r: r, ob: ob, inc: inc, token: iss.SecurityToken(), clk: clk}
}

func (h *harness) fund(t *testing.T, account ledger.AccountID, usdtAmt, tokenAmt int64) {
	t.Helper()
	if usdtAmt > 0 {
		require.NoError(t, h.l.Mint(owner, usdtAsset, account, usdtAmt))
	}
	if tokenAmt > 0 {
		require.NoError(t, h.l.Transfer(h.token, treasury, account, tokenAmt))
	}
	iss := h.r.LookupBySecurityToken(h.token)
	require.NoError(t, iss.Whitelist(owner, account, true))
}

func TestRegisterProviderRejectsDuplicate(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.inc.RegisterProvider("p1"))
	assert.ErrorIs(t, h.inc.RegisterProvider("p1"), ErrAlreadyRegistered)
}

func TestCreateProgramRestrictedAndValidated(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.inc.CreateProgram("not-owner", h.token, 100, 100, 1000, 50, 30), ErrOwnerOnly)
	assert.ErrorIs(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1000, 0, 30), ErrInvalidDailyRate)
	assert.ErrorIs(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1000, 10_001, 30), ErrInvalidDailyRate)

	require.NoError(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1000, 50, 30))
	prog := h.inc.Program(h.token)
	require.NotNil(t, prog)
	assert.True(t, prog.Active)
	assert.Equal(t, int64(1_000+30*secondsPerDay), prog.EndTime)
}

func TestLockCollateralRequiresActiveProviderAndProgram(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "p1", 10_000, 0)

	err := h.inc.LockCollateral("p1", h.token, 2_000)
	assert.ErrorIs(t, err, ErrNotActiveProvider)

	require.NoError(t, h.inc.RegisterProvider("p1"))
	err = h.inc.LockCollateral("p1", h.token, 2_000)
	assert.ErrorIs(t, err, ErrUnknownProgram)

	require.NoError(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1_000, 50, 30))
	err = h.inc.LockCollateral("p1", h.token, 500)
	assert.ErrorIs(t, err, ErrBelowMinLockup)

	require.NoError(t, h.inc.LockCollateral("p1", h.token, 2_000))
	assert.Equal(t, int64(8_000), h.l.BalanceOf(usdtAsset, "p1"))
	assert.Equal(t, int64(2_000), h.l.BalanceOf(usdtAsset, incEscrow))

	p := h.inc.Provider("p1")
	require.NotNil(t, p)
	assert.Equal(t, int64(2_000), p.CurrentLocked)
}

func TestReleaseCollateralRequiresProgramEndedOrInactive(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "p1", 10_000, 0)
	require.NoError(t, h.inc.RegisterProvider("p1"))
	require.NoError(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1_000, 50, 30))
	require.NoError(t, h.inc.LockCollateral("p1", h.token, 2_000))

	err := h.inc.ReleaseCollateral("p1", h.token)
	assert.ErrorIs(t, err, ErrProgramStillActive)

	require.NoError(t, h.inc.ToggleProgram(owner, h.token, false))
	before := h.l.BalanceOf(usdtAsset, "p1")
	require.NoError(t, h.inc.ReleaseCollateral("p1", h.token))
	assert.Equal(t, before+2_000, h.l.BalanceOf(usdtAsset, "p1"))

	err = h.inc.ReleaseCollateral("p1", h.token)
	assert.ErrorIs(t, err, ErrNoCollateral)
}

func TestReleaseCollateralAfterProgramEndsByTime(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "p1", 10_000, 0)
	require.NoError(t, h.inc.RegisterProvider("p1"))
	require.NoError(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1_000, 50, 1))
	require.NoError(t, h.inc.LockCollateral("p1", h.token, 2_000))

	h.clk.Advance(secondsPerDay + 1)
	require.NoError(t, h.inc.ReleaseCollateral("p1", h.token))
}

// TestScenarioFSpreadObligationMet reproduces the worked example: a
// provider quoting both sides within the allowed spread earns the
// program's daily rate on its locked collateral.
func TestScenarioFSpreadObligationMet(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "p", 2_000_000, 1_000)

	require.NoError(t, h.inc.RegisterProvider("p"))
	require.NoError(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1_000, 50, 30))
	require.NoError(t, h.inc.LockCollateral("p", h.token, 1_000_000))

	_, err := h.ob.SubmitBuy("p", h.token, 500, 1_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitSell("p", h.token, 500, 1_005_000)
	require.NoError(t, err)

	assert.True(t, h.inc.MeetsSpread("p", h.token))
	assert.Equal(t, int64(5_000), h.inc.DailyReward("p", h.token))

	before := h.l.BalanceOf(usdtAsset, "p")
	reward, err := h.inc.ClaimRewards("p", h.token)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), reward)
	assert.Equal(t, before+5_000, h.l.BalanceOf(usdtAsset, "p"))
}

func TestMeetsSpreadFalseWithoutTwoSidedQuote(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "p", 2_000_000, 1_000)
	h.fund(t, "other", 2_000_000, 1_000)

	require.NoError(t, h.inc.RegisterProvider("p"))
	require.NoError(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1_000, 50, 30))
	require.NoError(t, h.inc.LockCollateral("p", h.token, 1_000_000))

	_, err := h.ob.SubmitBuy("p", h.token, 500, 1_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitSell("other", h.token, 500, 1_005_000)
	require.NoError(t, err)

	assert.False(t, h.inc.MeetsSpread("p", h.token))
	assert.Equal(t, int64(0), h.inc.DailyReward("p", h.token))
}

func TestMeetsSpreadFalseWhenSpreadTooWide(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "p", 2_000_000, 1_000)

	require.NoError(t, h.inc.RegisterProvider("p"))
	require.NoError(t, h.inc.CreateProgram(owner, h.token, 10, 100, 1_000, 50, 30))
	require.NoError(t, h.inc.LockCollateral("p", h.token, 1_000_000))

	_, err := h.ob.SubmitBuy("p", h.token, 500, 1_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitSell("p", h.token, 500, 1_100_000)
	require.NoError(t, err)

	assert.False(t, h.inc.MeetsSpread("p", h.token))
}

func TestClaimRewardsFailsWithoutCollateralOrWhenObligationUnmet(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "p", 2_000_000, 1_000)
	require.NoError(t, h.inc.RegisterProvider("p"))
	require.NoError(t, h.inc.CreateProgram(owner, h.token, 100, 100, 1_000, 50, 30))

	_, err := h.inc.ClaimRewards("p", h.token)
	assert.ErrorIs(t, err, ErrNoCollateral)

	require.NoError(t, h.inc.LockCollateral("p", h.token, 1_000_000))
	_, err = h.inc.ClaimRewards("p", h.token)
	assert.ErrorIs(t, err, ErrNothingToClaim)
}
