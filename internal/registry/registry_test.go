package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/ledger"
)

const (
	owner    ledger.AccountID = "owner"
	treasury ledger.AccountID = "acme-treasury"
	usdt     ledger.AssetID   = "usdt"
)

func TestDeployIssuerMintsAndAutoWhitelistsTreasury(t *testing.T) {
	l := ledger.New(owner)
	r := New(owner, l, events.Noop{})

	iss, err := r.DeployIssuer(owner, "Acme Inc", "ACME", 10_000_000, usdt, treasury)
	require.NoError(t, err)

	assert.Equal(t, int64(10_000_000), l.BalanceOf(iss.SecurityToken(), treasury))
	assert.Equal(t, int64(10_000_000), l.TotalSupply(iss.SecurityToken()))
	assert.True(t, iss.IsWhitelisted(treasury))
}

func TestDeployIssuerRestrictedToOwner(t *testing.T) {
	l := ledger.New(owner)
	r := New(owner, l, events.Noop{})

	_, err := r.DeployIssuer("someone-else", "Acme Inc", "ACME", 100, usdt, treasury)
	assert.ErrorIs(t, err, ErrOwnerOnly)
}

func TestDeployIssuerRejectsDuplicateCompany(t *testing.T) {
	l := ledger.New(owner)
	r := New(owner, l, events.Noop{})

	_, err := r.DeployIssuer(owner, "Acme Inc", "ACME", 100, usdt, treasury)
	require.NoError(t, err)

	_, err = r.DeployIssuer(owner, "Acme Inc", "ACME2", 50, usdt, "other-treasury")
	assert.ErrorIs(t, err, ErrDuplicateCompany)
}

func TestListIssuersInDeploymentOrder(t *testing.T) {
	l := ledger.New(owner)
	r := New(owner, l, events.Noop{})

	first, err := r.DeployIssuer(owner, "First Co", "FST", 10, usdt, "t1")
	require.NoError(t, err)
	second, err := r.DeployIssuer(owner, "Second Co", "SND", 10, usdt, "t2")
	require.NoError(t, err)

	got := r.ListIssuers()
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, second, got[1])
}

func TestLookupByCompanyAndSecurityToken(t *testing.T) {
	l := ledger.New(owner)
	r := New(owner, l, events.Noop{})

	iss, err := r.DeployIssuer(owner, "Acme Inc", "ACME", 10, usdt, treasury)
	require.NoError(t, err)

	assert.Equal(t, iss, r.LookupByCompany("Acme Inc"))
	assert.Nil(t, r.LookupByCompany("Nonexistent"))

	assert.Equal(t, iss, r.LookupBySecurityToken(iss.SecurityToken()))
	// Exercise the LRU cache path on the second lookup.
	assert.Equal(t, iss, r.LookupBySecurityToken(iss.SecurityToken()))
	assert.Nil(t, r.LookupBySecurityToken("unknown-asset"))
}
