package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/basket-engine/internal/basket"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/http/httputil"
	"github.com/hxuan190/basket-engine/internal/registry"
)

// Admin routes take the acting signer in the body. They are meant for
// operators and local development and answer 404 unless enabled.

type CreateBasketBody struct {
	Signer   string  `json:"signer" binding:"required"`
	BasketID uint64  `json:"basketId"`
	Name     string  `json:"name" binding:"required"`
	FeeBps   *uint16 `json:"feeBps"`
}

type CreateBasketResponse struct {
	Address        string `json:"address"`
	ShareMint      string `json:"shareMint"`
	VaultAuthority string `json:"vaultAuthority"`
}

// @Summary Create basket
// @Tags admin
// @Accept json
// @Produce json
// @Param body body CreateBasketBody true "Basket"
// @Success 200 {object} CreateBasketResponse
// @Router /api/v1/admin/baskets [post]
func (h *BasketHandler) createBasket(c *gin.Context) {
	var body CreateBasketBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	signer, err := parseKey("signer", body.Signer)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	b, addr, err := h.basketSvc.CreateBasket(signer, body.BasketID, body.Name, body.FeeBps)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, CreateBasketResponse{
		Address:        addr.String(),
		ShareMint:      b.ShareMint.String(),
		VaultAuthority: b.VaultAuthority.String(),
	})
}

type AddTokenBody struct {
	Signer         string `json:"signer" binding:"required"`
	Mint           string `json:"mint" binding:"required"`
	VaultAuthority string `json:"vaultAuthority"`
}

// @Summary Register asset
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Basket id"
// @Param body body AddTokenBody true "Asset"
// @Success 200 {object} domain.BasketToken
// @Router /api/v1/admin/baskets/{id}/tokens [post]
func (h *BasketHandler) addToken(c *gin.Context) {
	id, err := basketIDParam(c)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	var body AddTokenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	signer, err := parseKey("signer", body.Signer)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mint, err := parseKey("mint", body.Mint)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	b, _, err := h.basketSvc.Registry().Basket(id)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	vaultAuth, err := parseOptionalKey("vaultAuthority", body.VaultAuthority, b.VaultAuthority)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	t, err := h.basketSvc.AddToken(signer, id, mint, vaultAuth)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, gin.H{"registration": t.Key.String(), "token": t.Token})
}

type AllowListBody struct {
	Signer  string `json:"signer" binding:"required"`
	User    string `json:"user" binding:"required"`
	Allowed bool   `json:"allowed"`
}

// @Summary Update compliance entry
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Basket id"
// @Param body body AllowListBody true "Entry"
// @Success 200 {object} domain.UserAllowList
// @Router /api/v1/admin/baskets/{id}/allow-list [post]
func (h *BasketHandler) updateAllowList(c *gin.Context) {
	id, err := basketIDParam(c)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	var body AllowListBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	signer, err := parseKey("signer", body.Signer)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	user, err := parseKey("user", body.User)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	entry, err := h.basketSvc.UpdateAllowList(signer, id, user, body.Allowed)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, entry)
}

type VerifyOwnerBody struct {
	Owner          string   `json:"owner" binding:"required"`
	ShareMint      string   `json:"shareMint" binding:"required"`
	VaultAuthority string   `json:"vaultAuthority" binding:"required"`
	Registrations  []string `json:"registrations"`
}

// @Summary Verify basket ownership and wiring
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Basket id"
// @Param body body VerifyOwnerBody true "Expected wiring"
// @Success 200 {object} httputil.Response
// @Router /api/v1/admin/baskets/{id}/verify-owner [post]
func (h *BasketHandler) verifyOwner(c *gin.Context) {
	id, err := basketIDParam(c)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	var body VerifyOwnerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	owner, err := parseKey("owner", body.Owner)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	shareMint, err := parseKey("shareMint", body.ShareMint)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	vaultAuth, err := parseKey("vaultAuthority", body.VaultAuthority)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	regs, err := parseKeys("registration", body.Registrations)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	if err := h.basketSvc.VerifyBasketOwner(id, owner, shareMint, vaultAuth, regs); err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, gin.H{"verified": true})
}

type ConfigHandler struct {
	basketSvc *basket.Service
}

func NewConfigHandler(basketSvc *basket.Service) *ConfigHandler {
	return &ConfigHandler{basketSvc: basketSvc}
}

func (h *ConfigHandler) Root() string {
	return "/config"
}

func (h *ConfigHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getConfig)
	admin.POST("", h.initConfig)
	admin.PATCH("", h.updateConfig)
}

type ConfigResponse struct {
	ProgramID         string `json:"programId"`
	Admin             string `json:"admin"`
	WhitelistAuth     string `json:"whitelistAuth"`
	FeeBps            uint16 `json:"feeBps"`
	ComplianceEnabled bool   `json:"complianceEnabled"`
	Version           uint8  `json:"version"`
}

func (h *ConfigHandler) configResponse(cfg *domain.Config) ConfigResponse {
	return ConfigResponse{
		ProgramID:         h.basketSvc.ProgramID().String(),
		Admin:             cfg.Admin.String(),
		WhitelistAuth:     cfg.WhitelistAuth.String(),
		FeeBps:            cfg.FeeBps,
		ComplianceEnabled: cfg.ComplianceEnabled,
		Version:           cfg.Version,
	}
}

// @Summary Get protocol config
// @Tags config
// @Produce json
// @Success 200 {object} ConfigResponse
// @Router /api/v1/config [get]
func (h *ConfigHandler) getConfig(c *gin.Context) {
	cfg, err := h.basketSvc.Registry().Config()
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			httputil.HandleNotFound(c, "config not initialized")
			return
		}
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, h.configResponse(cfg))
}

type InitConfigBody struct {
	Admin             string `json:"admin" binding:"required"`
	WhitelistAuth     string `json:"whitelistAuth"`
	FeeBps            uint16 `json:"feeBps" binding:"required"`
	ComplianceEnabled bool   `json:"complianceEnabled"`
}

// @Summary Initialize protocol config
// @Tags admin
// @Accept json
// @Produce json
// @Param body body InitConfigBody true "Config"
// @Success 200 {object} ConfigResponse
// @Router /api/v1/admin/config [post]
func (h *ConfigHandler) initConfig(c *gin.Context) {
	var body InitConfigBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	admin, err := parseKey("admin", body.Admin)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	wl, err := parseOptionalKey("whitelistAuth", body.WhitelistAuth, admin)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	cfg, err := h.basketSvc.InitConfig(admin, body.FeeBps, wl, body.ComplianceEnabled)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, h.configResponse(cfg))
}

type UpdateConfigBody struct {
	Signer            string  `json:"signer" binding:"required"`
	FeeBps            *uint16 `json:"feeBps"`
	WhitelistAuth     *string `json:"whitelistAuth"`
	ComplianceEnabled *bool   `json:"complianceEnabled"`
	NewAdmin          *string `json:"newAdmin"`
}

// @Summary Update protocol config
// @Tags admin
// @Accept json
// @Produce json
// @Param body body UpdateConfigBody true "Changes"
// @Success 200 {object} ConfigResponse
// @Router /api/v1/admin/config [patch]
func (h *ConfigHandler) updateConfig(c *gin.Context) {
	var body UpdateConfigBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	signer, err := parseKey("signer", body.Signer)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	u := registry.ConfigUpdate{FeeBps: body.FeeBps, ComplianceEnabled: body.ComplianceEnabled}
	if body.WhitelistAuth != nil {
		k, err := parseKey("whitelistAuth", *body.WhitelistAuth)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		u.WhitelistAuth = &k
	}
	if body.NewAdmin != nil {
		k, err := parseKey("newAdmin", *body.NewAdmin)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		u.NewAdmin = &k
	}
	cfg, err := h.basketSvc.SetConfig(signer, u)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, h.configResponse(cfg))
}
