package basket

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/metrics"
	"github.com/hxuan190/basket-engine/internal/registry"
	"github.com/hxuan190/basket-engine/internal/services/authority"
)

func (svc *Service) track(op string, err error) {
	status := "success"
	if err != nil {
		status = "rejected"
		svc.logger.Rejected(op, err).Msg("[BasketService] admin operation rejected")
	}
	metrics.AdminOperations.WithLabelValues(op, status).Inc()
	svc.refreshGauges()
}

func (svc *Service) InitConfig(admin solana.PublicKey, feeBps uint16, whitelistAuth solana.PublicKey, compliance bool) (cfg *domain.Config, err error) {
	defer func() { svc.track("init_config", err) }()
	return svc.registry.InitConfig(admin, feeBps, whitelistAuth, compliance)
}

func (svc *Service) SetConfig(signer solana.PublicKey, u registry.ConfigUpdate) (cfg *domain.Config, err error) {
	defer func() { svc.track("set_config", err) }()
	return svc.registry.SetConfig(signer, u)
}

func (svc *Service) CreateBasket(signer solana.PublicKey, basketID uint64, name string, feeOverride *uint16) (b *domain.Basket, addr solana.PublicKey, err error) {
	defer func() { svc.track("create_basket", err) }()
	return svc.registry.CreateBasket(signer, basketID, name, feeOverride)
}

func (svc *Service) AddToken(signer solana.PublicKey, basketID uint64, mint, vaultAuthority solana.PublicKey) (t *registry.RegisteredToken, err error) {
	defer func() { svc.track("add_token", err) }()
	return svc.registry.AddToken(signer, basketID, mint, vaultAuthority)
}

func (svc *Service) UpdateAllowList(signer solana.PublicKey, basketID uint64, user solana.PublicKey, allowed bool) (e *domain.UserAllowList, err error) {
	defer func() { svc.track("update_allow_list", err) }()
	return svc.registry.UpdateAllowList(signer, basketID, user, allowed)
}

func (svc *Service) VerifyBasketOwner(basketID uint64, owner, shareMint, vaultAuthority solana.PublicKey, registrations []solana.PublicKey) (err error) {
	defer func() { svc.track("verify_owner", err) }()
	return svc.registry.VerifyBasketOwner(basketID, owner, shareMint, vaultAuthority, registrations)
}

// CreateMint registers a new asset mint issued by authority.
func (svc *Service) CreateMint(decimals uint8, authority solana.PublicKey) (mint solana.PublicKey, err error) {
	defer func() { svc.track("create_mint", err) }()
	mint = solana.NewWallet().PublicKey()
	err = svc.ledger.Update(func(tx *ledger.Tx) error {
		return tx.InitMint(mint, decimals, authority)
	})
	return mint, err
}

// OpenAccount opens the associated account of owner for mint if it does not exist yet.
func (svc *Service) OpenAccount(owner, mint solana.PublicKey) (ata solana.PublicKey, err error) {
	defer func() { svc.track("open_account", err) }()
	ata, err = authority.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	err = svc.ledger.Update(func(tx *ledger.Tx) error {
		return tx.InitAccountIfNeeded(ata, mint, owner)
	})
	return ata, err
}

// Credit is the dev faucet: it opens the owner's account when needed and
// issues amount new units into it.
func (svc *Service) Credit(owner, mint solana.PublicKey, amount uint64) (acct domain.TokenAccount, err error) {
	defer func() { svc.track("credit", err) }()
	ata, err := authority.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return domain.TokenAccount{}, err
	}
	err = svc.ledger.Update(func(tx *ledger.Tx) error {
		if err := tx.InitAccountIfNeeded(ata, mint, owner); err != nil {
			return err
		}
		return tx.Credit(ata, amount)
	})
	if err != nil {
		return domain.TokenAccount{}, err
	}
	return svc.ledger.TokenAccount(ata)
}
