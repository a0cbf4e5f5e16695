package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/sekex/internal/clock"
	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/ledger"
	"github.com/LeJamon/sekex/internal/registry"
)

const (
	owner    ledger.AccountID = "owner"
	escrow   ledger.AccountID = "venue-escrow"
	feeColl  ledger.AccountID = "fee-collector"
	treasury ledger.AccountID = "acme-treasury"
	usdt     ledger.AssetID   = "usdt"
)

// harness wires a Ledger + Registry + one deployed issuer + OrderBook
// and funds two trading accounts with USDT and security tokens so
// tests can submit orders directly.
type harness struct {
	l     *ledger.Ledger
	r     *registry.Registry
	ob    *OrderBook
	token ledger.AssetID
	clk   *clock.Manual
	rec   *events.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	l := ledger.New(owner)
	rec := &events.Recorder{}
	r := registry.New(owner, l, rec)

	iss, err := r.DeployIssuer(owner, "Acme Inc", "ACME", 1_000_000, usdt, treasury)
	require.NoError(t, err)

	clk := clock.NewManual(1_000)
	ob := New(owner, l, r, escrow, feeColl, clk, rec)

	return &harness{l: l, r: r, ob: ob, token: iss.SecurityToken(), clk: clk, rec: rec}
}

func (h *harness) fund(t *testing.T, account ledger.AccountID, usdtAmt, tokenAmt int64) {
	t.Helper()
	if usdtAmt > 0 {
		require.NoError(t, h.l.Mint(owner, usdt, account, usdtAmt))
	}
	if tokenAmt > 0 {
		require.NoError(t, h.l.Transfer(h.token, treasury, account, tokenAmt))
	}
	iss := h.r.LookupBySecurityToken(h.token)
	require.NoError(t, iss.Whitelist(owner, account, true))
}

func TestSubmitBuyCrossesRestingAskImmediately(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "seller", 0, 100)
	h.fund(t, "buyer", 10_000_000, 0)

	sell, err := h.ob.SubmitSell("seller", h.token, 100, 5_000_000)
	require.NoError(t, err)

	buy, err := h.ob.SubmitBuy("buyer", h.token, 100, 5_000_000)
	require.NoError(t, err)

	assert.Equal(t, Filled, buy.Status)
	assert.Equal(t, Filled, sell.Status)
	assert.Equal(t, int64(100), h.l.BalanceOf(h.token, "buyer"))
	assert.Equal(t, int64(500), h.l.BalanceOf(usdt, "seller")) // 100 * 5.0 = 500 USDT gross, fee 0 by default
}

func TestSubmitBuyPartialFillLeavesResidualResting(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "seller", 0, 40)
	h.fund(t, "buyer", 10_000_000, 0)

	_, err := h.ob.SubmitSell("seller", h.token, 40, 2_000_000)
	require.NoError(t, err)

	buy, err := h.ob.SubmitBuy("buyer", h.token, 100, 2_000_000)
	require.NoError(t, err)

	assert.Equal(t, Open, buy.Status)
	assert.Equal(t, int64(40), buy.Filled)
	assert.Equal(t, int64(60), buy.Remaining())

	active := h.ob.UserActiveOrders("buyer")
	require.Len(t, active, 1)
	assert.Equal(t, buy.ID, active[0].ID)

	// Residual escrow still held: buyer paid 80 USDT for the 40 already
	// filled plus 60 still escrowed at 2.0 USDT each = 120 USDT held.
	assert.Equal(t, int64(10_000_000-80-120), h.l.BalanceOf(usdt, "buyer"))
}

func TestCancelPartiallyFilledOrderRefundsRemainder(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "seller", 0, 40)
	h.fund(t, "buyer", 10_000_000, 0)

	_, err := h.ob.SubmitSell("seller", h.token, 40, 2_000_000)
	require.NoError(t, err)

	buy, err := h.ob.SubmitBuy("buyer", h.token, 100, 2_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(40), buy.Filled)

	before := h.l.BalanceOf(usdt, "buyer")
	require.NoError(t, h.ob.Cancel("buyer", buy.ID))

	got, ok := h.ob.Order(buy.ID)
	require.True(t, ok)
	assert.Equal(t, Cancelled, got.Status)

	// 60 remaining units at 2.0 USDT refunded.
	assert.Equal(t, before+120, h.l.BalanceOf(usdt, "buyer"))
	assert.Empty(t, h.ob.UserActiveOrders("buyer"))
}

// TestCancelAfterPriceImprovedPartialFillRefundsSurplusAndResidual
// covers a buy that both fills part of its quantity at a better price
// than its own limit and leaves the rest unfilled: cancelling it must
// return the unfilled residual at the order's own limit price *and*
// the surplus the better-priced partial fill never spent, not just
// one or the other.
func TestCancelAfterPriceImprovedPartialFillRefundsSurplusAndResidual(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "seller", 0, 40)
	h.fund(t, "buyer", 10_000_000, 0)

	_, err := h.ob.SubmitSell("seller", h.token, 40, 1_500_000)
	require.NoError(t, err)

	buy, err := h.ob.SubmitBuy("buyer", h.token, 100, 2_000_000)
	require.NoError(t, err)
	require.Equal(t, Open, buy.Status)
	require.Equal(t, int64(40), buy.Filled)

	// Filled 40 @ exec price 1.5 USDT (the resting seller's, better
	// than the buyer's own 2.0 limit) = 60 USDT spent, leaving a 20
	// USDT surplus on top of the 60-unit, 120 USDT unfilled residual:
	// 200 escrowed at submission, 140 should remain in escrow.
	assert.Equal(t, int64(140), buy.EscrowRemaining)

	before := h.l.BalanceOf(usdt, "buyer")
	require.NoError(t, h.ob.Cancel("buyer", buy.ID))
	assert.Equal(t, before+140, h.l.BalanceOf(usdt, "buyer"))
}

func TestSelfTradeIsSkippedNotMatched(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "trader", 10_000_000, 100)

	sell, err := h.ob.SubmitSell("trader", h.token, 50, 3_000_000)
	require.NoError(t, err)

	buy, err := h.ob.SubmitBuy("trader", h.token, 50, 3_000_000)
	require.NoError(t, err)

	// Both remain open: the book never matches an account against itself.
	assert.Equal(t, Open, sell.Status)
	assert.Equal(t, Open, buy.Status)
}

func TestSelfTradeSkipsOverToNextEligibleCounterOrder(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "trader", 10_000_000, 100)
	h.fund(t, "otherSeller", 0, 100)

	// trader's own resting ask sits at the best price; a second seller
	// rests just behind it at the same price.
	selfSell, err := h.ob.SubmitSell("trader", h.token, 30, 4_000_000)
	require.NoError(t, err)
	otherSell, err := h.ob.SubmitSell("otherSeller", h.token, 30, 4_000_000)
	require.NoError(t, err)

	buy, err := h.ob.SubmitBuy("trader", h.token, 30, 4_000_000)
	require.NoError(t, err)

	assert.Equal(t, Open, selfSell.Status, "self-trade candidate must stay resting, untouched")
	assert.Equal(t, Filled, otherSell.Status)
	assert.Equal(t, Filled, buy.Status)
}

func TestSubmitRejectsNonWhitelistedAccount(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.l.Mint(owner, usdt, "stranger", 1_000_000))

	_, err := h.ob.SubmitBuy("stranger", h.token, 10, 1_000_000)
	assert.ErrorIs(t, err, ErrNotWhitelisted)
}

func TestSubmitRejectsNonPositiveAmountOrPrice(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "buyer", 1_000_000, 0)

	_, err := h.ob.SubmitBuy("buyer", h.token, 0, 1_000_000)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = h.ob.SubmitBuy("buyer", h.token, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSubmitBuyFailsWithoutSufficientEscrow(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "buyer", 100, 0)

	_, err := h.ob.SubmitBuy("buyer", h.token, 100, 5_000_000)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestCancelRestrictedToOwnerAndOpenStatus(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "buyer", 1_000_000, 0)

	buy, err := h.ob.SubmitBuy("buyer", h.token, 10, 1_000_000)
	require.NoError(t, err)

	err = h.ob.Cancel("someone-else", buy.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, h.ob.Cancel("buyer", buy.ID))
	err = h.ob.Cancel("buyer", buy.ID)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestCancelExpiredRequiresAgeAndOpenStatus(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "buyer", 1_000_000, 0)

	buy, err := h.ob.SubmitBuy("buyer", h.token, 10, 1_000_000)
	require.NoError(t, err)

	err = h.ob.CancelExpired(buy.ID)
	assert.ErrorIs(t, err, ErrNotExpired)

	h.clk.Advance(MaxOrderAge + 1)
	before := h.l.BalanceOf(usdt, "buyer")
	require.NoError(t, h.ob.CancelExpired(buy.ID))

	got, _ := h.ob.Order(buy.ID)
	assert.Equal(t, Cancelled, got.Status)
	assert.Equal(t, before+10, h.l.BalanceOf(usdt, "buyer"))
}

func TestMatcherExpiresStaleCounterOrderInsteadOfTradingAgainstIt(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "seller", 0, 50)
	h.fund(t, "buyer", 1_000_000, 0)

	sell, err := h.ob.SubmitSell("seller", h.token, 50, 1_000_000)
	require.NoError(t, err)

	h.clk.Advance(MaxOrderAge + 1)

	sellerBalBefore := h.l.BalanceOf(h.token, "seller")
	buy, err := h.ob.SubmitBuy("buyer", h.token, 50, 1_000_000)
	require.NoError(t, err)

	// The stale ask is expired and refunded, not traded; buyer's order
	// stays open, resting, with its escrow intact.
	gotSell, _ := h.ob.Order(sell.ID)
	assert.Equal(t, Cancelled, gotSell.Status)
	assert.Equal(t, sellerBalBefore+50, h.l.BalanceOf(h.token, "seller"))
	assert.Equal(t, Open, buy.Status)
}

func TestBestBidAskReflectRestingExtremes(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "buyer1", 10_000_000, 0)
	h.fund(t, "buyer2", 10_000_000, 0)
	h.fund(t, "seller1", 0, 100)
	h.fund(t, "seller2", 0, 100)

	_, err := h.ob.SubmitBuy("buyer1", h.token, 10, 1_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitBuy("buyer2", h.token, 10, 1_500_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitSell("seller1", h.token, 10, 3_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitSell("seller2", h.token, 10, 2_500_000)
	require.NoError(t, err)

	bid, bidSize := h.ob.BestBid(h.token)
	assert.Equal(t, int64(1_500_000), bid)
	assert.Equal(t, int64(10), bidSize)

	ask, askSize := h.ob.BestAsk(h.token)
	assert.Equal(t, int64(2_500_000), ask)
	assert.Equal(t, int64(10), askSize)
}

// TestScenarioACrossingFillOnSubmission reproduces the worked example
// verbatim: Bob rests a sell, Alice's buy crosses it at Bob's (better,
// resting-order) price, and Alice's unused escrow is refunded.
func TestScenarioACrossingFillOnSubmission(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ob.SetTradingFeeBps(owner, 25))
	h.fund(t, "bob", 0, 1_000_000)
	h.fund(t, "alice", 2_000_000, 0)

	sell, err := h.ob.SubmitSell("bob", h.token, 500_000, 1_200_000)
	require.NoError(t, err)

	aliceUSDTBefore := h.l.BalanceOf(usdt, "alice")
	buy, err := h.ob.SubmitBuy("alice", h.token, 500_000, 1_500_000)
	require.NoError(t, err)

	assert.Equal(t, Filled, buy.Status)
	assert.Equal(t, Filled, sell.Status)
	assert.Equal(t, int64(500_000), h.l.BalanceOf(h.token, "alice"))
	assert.Equal(t, int64(598_500), h.l.BalanceOf(usdt, "bob"))
	assert.Equal(t, int64(1_500), h.l.BalanceOf(usdt, feeColl))
	assert.Equal(t, aliceUSDTBefore-600_000, h.l.BalanceOf(usdt, "alice"))
}

// TestScenarioBPartialFillThenRest reproduces the worked example: Alice
// rests a large buy with nothing to match, then Bob's smaller sell
// partially fills it. Per §4.4, execution price is always the resting
// counter-order's price — here Alice's resting BUY @ 1,000,000, not
// Bob's incoming SELL @ 900,000 — so gross is 400,000*1,000,000/10^6 =
// 400,000, fee(25bps) = 1,000, and Bob nets 399,000.
func TestScenarioBPartialFillThenRest(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ob.SetTradingFeeBps(owner, 25))
	h.fund(t, "alice", 1_000_000, 0)
	h.fund(t, "bob", 0, 400_000)

	buy, err := h.ob.SubmitBuy("alice", h.token, 1_000_000, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, Open, buy.Status)

	sell, err := h.ob.SubmitSell("bob", h.token, 400_000, 900_000)
	require.NoError(t, err)

	assert.Equal(t, Filled, sell.Status)
	assert.Equal(t, int64(400_000), buy.Filled)
	assert.Equal(t, Open, buy.Status)
	assert.Equal(t, int64(399_000), h.l.BalanceOf(usdt, "bob"))
	assert.Equal(t, int64(1_000), h.l.BalanceOf(usdt, feeColl))
}

// TestScenarioCCancelPartiallyFilled continues scenario B: Alice
// cancels her partially filled buy and recovers exactly her remaining
// escrow.
func TestScenarioCCancelPartiallyFilled(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ob.SetTradingFeeBps(owner, 25))
	h.fund(t, "alice", 1_000_000, 0)
	h.fund(t, "bob", 0, 400_000)

	buy, err := h.ob.SubmitBuy("alice", h.token, 1_000_000, 1_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitSell("bob", h.token, 400_000, 900_000)
	require.NoError(t, err)

	before := h.l.BalanceOf(usdt, "alice")
	require.NoError(t, h.ob.Cancel("alice", buy.ID))
	assert.Equal(t, before+600_000, h.l.BalanceOf(usdt, "alice"))
}

// TestScenarioDSelfTradePrevention reproduces the worked example: Alice
// cannot trade against herself; both orders stay OPEN.
func TestScenarioDSelfTradePrevention(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "alice", 1_000_000_000, 100)

	sell, err := h.ob.SubmitSell("alice", h.token, 100, 1_000_000)
	require.NoError(t, err)
	buy, err := h.ob.SubmitBuy("alice", h.token, 100, 1_000_000)
	require.NoError(t, err)

	assert.Equal(t, Open, sell.Status)
	assert.Equal(t, Open, buy.Status)
}

func TestFeeIsDeductedFromSellerAndRoutedToCollector(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ob.SetTradingFeeBps(owner, 50)) // 0.5%
	h.fund(t, "seller", 0, 100)
	h.fund(t, "buyer", 10_000_000, 0)

	_, err := h.ob.SubmitSell("seller", h.token, 100, 100_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitBuy("buyer", h.token, 100, 100_000_000)
	require.NoError(t, err)

	// gross = 100 * 100.0 = 10,000 USDT; fee = floor(10,000 * 50 / 10000) = 50,
	// so seller_net (9,950) + fee must add back up to gross.
	assert.Equal(t, int64(10_000), h.l.BalanceOf(usdt, "seller")+h.l.BalanceOf(usdt, feeColl))
}

func TestFeeRoutingWithNonZeroFee(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ob.SetTradingFeeBps(owner, 100)) // 1%
	h.fund(t, "seller", 0, 1_000)
	h.fund(t, "buyer", 100_000_000, 0)

	_, err := h.ob.SubmitSell("seller", h.token, 1_000, 1_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitBuy("buyer", h.token, 1_000, 1_000_000)
	require.NoError(t, err)

	// gross = 1000 * 1.0 = 1000 USDT; fee = floor(1000 * 100 / 10000) = 10
	assert.Equal(t, int64(990), h.l.BalanceOf(usdt, "seller"))
	assert.Equal(t, int64(10), h.l.BalanceOf(usdt, feeColl))
}

func TestSetTradingFeeBpsRestrictedAndBounded(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.ob.SetTradingFeeBps("not-owner", 10), ErrOwnerOnly)
	assert.ErrorIs(t, h.ob.SetTradingFeeBps(owner, 101), ErrFeeTooHigh)
	assert.NoError(t, h.ob.SetTradingFeeBps(owner, 100))
}

func TestHasActiveOrderReflectsCacheInvalidationAcrossMutations(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "buyer", 1_000_000, 0)

	assert.False(t, h.ob.HasActiveOrder("buyer", h.token, 1_000_000, Buy))

	buy, err := h.ob.SubmitBuy("buyer", h.token, 10, 1_000_000)
	require.NoError(t, err)
	assert.True(t, h.ob.HasActiveOrder("buyer", h.token, 1_000_000, Buy))

	require.NoError(t, h.ob.Cancel("buyer", buy.ID))
	assert.False(t, h.ob.HasActiveOrder("buyer", h.token, 1_000_000, Buy))
}

func TestNoNegativeBalancesAcrossMatching(t *testing.T) {
	h := newHarness(t)
	h.fund(t, "seller", 0, 200)
	h.fund(t, "buyer", 10_000_000, 0)

	_, err := h.ob.SubmitSell("seller", h.token, 200, 1_000_000)
	require.NoError(t, err)
	_, err = h.ob.SubmitBuy("buyer", h.token, 150, 1_000_000)
	require.NoError(t, err)

	for _, acct := range []ledger.AccountID{"seller", "buyer", escrow, feeColl, treasury} {
		assert.GreaterOrEqual(t, h.l.BalanceOf(usdt, acct), int64(0))
		assert.GreaterOrEqual(t, h.l.BalanceOf(h.token, acct), int64(0))
	}
}
