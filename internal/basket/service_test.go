package basket

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/config"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/services/legs"
)

func testConfig(t *testing.T, persist bool) *config.BasketConfig {
	return &config.BasketConfig{
		ProgramID:          common.DefaultBasketProgramID,
		DBPath:             filepath.Join(t.TempDir(), "basket.db"),
		PersistenceEnabled: persist,
		RateLimit:          10,
		RateBurst:          20,
		AdminEnabled:       true,
	}
}

type seeded struct {
	admin solana.PublicKey
	mints []solana.PublicKey
}

func seed(t *testing.T, svc *Service) seeded {
	t.Helper()
	s := seeded{admin: solana.NewWallet().PublicKey()}
	_, err := svc.InitConfig(s.admin, 30, s.admin, false)
	require.NoError(t, err)
	b, _, err := svc.CreateBasket(s.admin, 7, "majors", nil)
	require.NoError(t, err)
	for _, d := range []uint8{6, 9} {
		mint, err := svc.CreateMint(d, s.admin)
		require.NoError(t, err)
		_, err = svc.AddToken(s.admin, 7, mint, b.VaultAuthority)
		require.NoError(t, err)
		s.mints = append(s.mints, mint)
	}
	return s
}

func TestServiceDepositAndView(t *testing.T) {
	svc, err := NewService(testConfig(t, false))
	require.NoError(t, err)
	s := seed(t, svc)

	user := solana.NewWallet().PublicKey()
	_, err = svc.Credit(user, s.mints[0], 2_000_000)
	require.NoError(t, err)
	_, err = svc.Credit(user, s.mints[1], 2_000_000_000)
	require.NoError(t, err)

	req, err := svc.DepositRequest(7, user, []uint64{1_000_000, 1_000_000_000})
	require.NoError(t, err)
	res, err := svc.Deposit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_994_000), res.SharesMinted)

	v, err := svc.View(7)
	require.NoError(t, err)
	assert.Equal(t, "majors", v.Name)
	assert.Equal(t, uint16(30), v.FeeBps)
	assert.Equal(t, uint64(1_994_000), v.ShareSupply)
	assert.Equal(t, "1.994", v.ShareSupplyUI)
	require.Len(t, v.Tokens, 2)
	assert.Equal(t, s.mints[0], v.Tokens[0].Mint)
	assert.Equal(t, "0.997", v.Tokens[0].VaultBalanceUI)
	assert.Equal(t, "0.003", v.Tokens[1].FeeBalanceUI)

	bal, err := svc.Balance(user, s.mints[1])
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), bal)

	wreq, err := svc.WithdrawRequest(7, user, res.SharesMinted)
	require.NoError(t, err)
	_, err = svc.Withdraw(context.Background(), wreq)
	require.NoError(t, err)
	bal, err = svc.Balance(user, s.mints[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1_997_000), bal)
}

func TestServiceRecords(t *testing.T) {
	svc, err := NewService(testConfig(t, false))
	require.NoError(t, err)
	seed(t, svc)
	user := solana.NewWallet().PublicKey()

	dep, err := svc.Records(7, user, "deposit")
	require.NoError(t, err)
	assert.Len(t, dep, 2*legs.DepositStride)

	wd, err := svc.Records(7, user, "withdraw")
	require.NoError(t, err)
	assert.Len(t, wd, 2*legs.WithdrawStride)

	_, err = svc.Records(7, user, "swap")
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = svc.Records(8, user, "deposit")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestServiceStateSurvivesRestart(t *testing.T) {
	cfg := testConfig(t, true)
	svc, err := NewService(cfg)
	require.NoError(t, err)
	s := seed(t, svc)

	user := solana.NewWallet().PublicKey()
	_, err = svc.Credit(user, s.mints[0], 1_000_000)
	require.NoError(t, err)
	_, err = svc.Credit(user, s.mints[1], 1_000_000_000)
	require.NoError(t, err)
	req, err := svc.DepositRequest(7, user, []uint64{1_000_000, 1_000_000_000})
	require.NoError(t, err)
	_, err = svc.Deposit(context.Background(), req)
	require.NoError(t, err)
	before, err := svc.View(7)
	require.NoError(t, err)
	require.NoError(t, svc.Stop())

	reopened, err := NewService(cfg)
	require.NoError(t, err)
	defer reopened.Stop()

	after, err := reopened.View(7)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, reopened.Events(func(e domain.Event) bool { return e.Type == domain.EventDepositCompleted }), 1)
}
