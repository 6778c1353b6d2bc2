package http

import (
	"bytes"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/basket"
	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/config"
	"github.com/hxuan190/basket-engine/internal/http/middlewares"
	"github.com/hxuan190/basket-engine/internal/services/authority"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svc    *basket.Service
	admin  solana.PublicKey
	nonce  uint64
}

func newTestServer(t *testing.T, adminEnabled bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := basket.NewService(&config.BasketConfig{
		ProgramID:    common.DefaultBasketProgramID,
		RateLimit:    1000,
		RateBurst:    1000,
		AdminEnabled: adminEnabled,
	})
	require.NoError(t, err)

	httpSvc := &HTTPService{
		basketSvc:   svc,
		rateLimiter: middlewares.NewRateLimiter(1000, 1000),
		handlers:    defaultHandlers(svc),
	}
	return &testServer{t: t, router: httpSvc.router(), svc: svc, admin: solana.NewWallet().PublicKey()}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func (s *testServer) do(method, path string, body any) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) ok(method, path string, body any, out any) {
	s.t.Helper()
	code, env := s.do(method, path, body)
	require.Equal(s.t, gohttp.StatusOK, code, env.Error)
	require.True(s.t, env.Success)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(env.Data, out))
	}
}

// seed creates basket 1 holding a 6 and a 9 decimal asset.
func (s *testServer) seed() []string {
	s.t.Helper()
	s.ok("POST", "/api/v1/admin/config", gin.H{"admin": s.admin.String(), "feeBps": 30}, nil)

	var created CreateBasketResponse
	s.ok("POST", "/api/v1/admin/baskets", gin.H{"signer": s.admin.String(), "basketId": 1, "name": "index"}, &created)

	var mints []string
	for _, d := range []int{6, 9} {
		var m map[string]string
		s.ok("POST", "/api/v1/admin/accounts/mints", gin.H{"decimals": d, "authority": s.admin.String()}, &m)
		s.ok("POST", "/api/v1/admin/baskets/1/tokens", gin.H{"signer": s.admin.String(), "mint": m["mint"]}, nil)
		mints = append(mints, m["mint"])
	}
	return mints
}

func (s *testServer) sign(body gin.H, intent *authority.Intent, w *solana.Wallet) gin.H {
	s.t.Helper()
	s.nonce++
	intent.Nonce = s.nonce
	intent.ExpiresAt = time.Now().Add(time.Minute).Unix()
	sig, err := intent.Sign(w.PrivateKey)
	require.NoError(s.t, err)
	body["nonce"] = intent.Nonce
	body["expiresAt"] = intent.ExpiresAt
	body["signature"] = sig.String()
	return body
}

// signDeposit signs the deposit of amounts (base units) on basket 1 with the
// derived layout, which is what the handler builds when body names no
// accounts.
func (s *testServer) signDeposit(body gin.H, w *solana.Wallet, amounts ...uint64) gin.H {
	s.t.Helper()
	req, err := s.svc.DepositRequest(1, w.PublicKey(), amounts)
	require.NoError(s.t, err)
	return s.sign(body, s.svc.DepositIntent(req, 0, 0), w)
}

func (s *testServer) signWithdraw(body gin.H, w *solana.Wallet, shares uint64) gin.H {
	s.t.Helper()
	req, err := s.svc.WithdrawRequest(1, w.PublicKey(), shares)
	require.NoError(s.t, err)
	return s.sign(body, s.svc.WithdrawIntent(req, 0, 0), w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, gohttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestDepositWithdrawOverHTTP(t *testing.T) {
	s := newTestServer(t, true)
	mints := s.seed()
	wallet := solana.NewWallet()
	user := wallet.PublicKey().String()

	s.ok("POST", "/api/v1/admin/accounts/credit", gin.H{"owner": user, "mint": mints[0], "amount": "1000000"}, nil)
	s.ok("POST", "/api/v1/admin/accounts/credit", gin.H{"owner": user, "mint": mints[1], "amount": "1000000000"}, nil)

	var dep struct {
		SharesMinted uint64 `json:"sharesMinted"`
		FeeBps       uint16 `json:"feeBps"`
	}
	body := s.signDeposit(gin.H{"user": user, "uiAmounts": []string{"1", "1"}}, wallet, 1_000_000, 1_000_000_000)
	s.ok("POST", "/api/v1/baskets/1/deposit", body, &dep)
	assert.Equal(t, uint64(1_994_000), dep.SharesMinted)
	assert.Equal(t, uint16(30), dep.FeeBps)

	var view basket.View
	s.ok("GET", "/api/v1/baskets/1", nil, &view)
	assert.Equal(t, "1.994", view.ShareSupplyUI)
	require.Len(t, view.Tokens, 2)
	assert.Equal(t, "0.997", view.Tokens[0].VaultBalanceUI)

	var wd struct {
		SharesBurned uint64 `json:"sharesBurned"`
	}
	s.ok("POST", "/api/v1/baskets/1/withdraw", s.signWithdraw(gin.H{"user": user, "shares": "994000"}, wallet, 994_000), &wd)
	assert.Equal(t, uint64(994_000), wd.SharesBurned)

	var bal BalanceResponse
	s.ok("GET", "/api/v1/accounts?user="+user+"&mint="+mints[1], nil, &bal)
	assert.Equal(t, uint64(497_000_000), bal.Amount)

	var events []map[string]any
	s.ok("GET", "/api/v1/baskets/1/events?user="+user, nil, &events)
	assert.Len(t, events, 2)
}

func TestRecordsEndpoint(t *testing.T) {
	s := newTestServer(t, true)
	s.seed()
	user := solana.NewWallet().PublicKey().String()

	var res RecordsResponse
	s.ok("GET", "/api/v1/baskets/1/records?user="+user+"&op=withdraw", nil, &res)
	assert.Equal(t, 4, res.Stride)
	assert.Len(t, res.Records, 8)

	code, _ := s.do("GET", "/api/v1/baskets/1/records?user="+user+"&op=swap", nil)
	assert.Equal(t, gohttp.StatusBadRequest, code)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t, true)
	mints := s.seed()
	wallet := solana.NewWallet()
	user := wallet.PublicKey().String()
	s.ok("POST", "/api/v1/admin/accounts/credit", gin.H{"owner": user, "mint": mints[0], "amount": "10"}, nil)
	s.ok("POST", "/api/v1/admin/accounts/credit", gin.H{"owner": user, "mint": mints[1], "amount": "10000000000"}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown basket", "GET", "/api/v1/baskets/42", nil, gohttp.StatusNotFound, ""},
		{"bad basket id", "GET", "/api/v1/baskets/abc", nil, gohttp.StatusBadRequest, "BAD_REQUEST"},
		{"bad user", "POST", "/api/v1/baskets/1/deposit", gin.H{"user": "nope", "amounts": []string{"1", "1"}}, gohttp.StatusBadRequest, "BAD_REQUEST"},
		{"partial basket", "POST", "/api/v1/baskets/1/deposit", s.signDeposit(gin.H{"user": user, "amounts": []string{"1"}}, wallet, 1), gohttp.StatusBadRequest, "IncompleteWithdrawal:6017"},
		{"zero deposit", "POST", "/api/v1/baskets/1/deposit", s.signDeposit(gin.H{"user": user, "amounts": []string{"0", "1"}}, wallet, 0, 1), gohttp.StatusBadRequest, "ZeroDeposit:6007"},
		{"insufficient funds", "POST", "/api/v1/baskets/1/deposit", s.signDeposit(gin.H{"user": user, "amounts": []string{"1000", "1000"}}, wallet, 1000, 1000), gohttp.StatusConflict, "InsufficientFunds:1"},
		{"fee out of range", "POST", "/api/v1/admin/baskets", gin.H{"signer": s.admin.String(), "basketId": 2, "name": "x", "feeBps": 5}, gohttp.StatusBadRequest, "InvalidFee:6001"},
		{"wrong signer", "POST", "/api/v1/admin/baskets", gin.H{"signer": user, "basketId": 2, "name": "x"}, gohttp.StatusForbidden, "Unauthorized:6000"},
		{"no shares", "POST", "/api/v1/baskets/1/withdraw", s.signWithdraw(gin.H{"user": user, "shares": "1"}, wallet, 1), gohttp.StatusBadRequest, "InsufficientShares:6008"},
		{"unsigned deposit", "POST", "/api/v1/baskets/1/deposit", gin.H{"user": user, "amounts": []string{"1", "1"}}, gohttp.StatusForbidden, "MissingSignature:100"},
		{"garbled signature", "POST", "/api/v1/baskets/1/withdraw", gin.H{"user": user, "shares": "1", "signature": "0OIl"}, gohttp.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, code, env.Error)
			assert.False(t, env.Success)
			if tt.code != "" {
				assert.Equal(t, tt.code, env.Code)
			}
		})
	}
}

func TestAdminRoutesDisabled(t *testing.T) {
	s := newTestServer(t, false)
	code, _ := s.do("POST", "/api/v1/admin/config", gin.H{"admin": s.admin.String(), "feeBps": 30})
	assert.Equal(t, gohttp.StatusNotFound, code)

	code, _ = s.do("GET", "/api/v1/config", nil)
	assert.Equal(t, gohttp.StatusNotFound, code)
}

func TestConfigUpdate(t *testing.T) {
	s := newTestServer(t, true)
	s.seed()

	var cfg ConfigResponse
	s.ok("PATCH", "/api/v1/admin/config", gin.H{"signer": s.admin.String(), "feeBps": 50, "complianceEnabled": true}, &cfg)
	assert.Equal(t, uint16(50), cfg.FeeBps)
	assert.True(t, cfg.ComplianceEnabled)

	code, env := s.do("PATCH", "/api/v1/admin/config", gin.H{"signer": s.admin.String(), "feeBps": 51})
	assert.Equal(t, gohttp.StatusBadRequest, code)
	assert.Equal(t, "InvalidFee:6001", env.Code)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.NewRateLimiter(1, 2).RateLimitMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(gohttp.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		codes[i] = w.Code
	}
	assert.Equal(t, []int{gohttp.StatusOK, gohttp.StatusOK, gohttp.StatusTooManyRequests}, codes)
}

func TestDepositWithdrawRequireUserSignature(t *testing.T) {
	s := newTestServer(t, true)
	mints := s.seed()
	victim := solana.NewWallet()
	attacker := solana.NewWallet()
	v := victim.PublicKey().String()

	for i, amount := range []string{"2000000", "2000000000"} {
		s.ok("POST", "/api/v1/admin/accounts/credit", gin.H{"owner": v, "mint": mints[i], "amount": amount}, nil)
	}
	s.ok("POST", "/api/v1/baskets/1/deposit", s.signDeposit(gin.H{"user": v, "amounts": []string{"1000000", "1000000000"}}, victim, 1_000_000, 1_000_000_000), nil)

	var view basket.View
	s.ok("GET", "/api/v1/baskets/1", nil, &view)
	sharesOf := func() uint64 {
		var bal BalanceResponse
		s.ok("GET", "/api/v1/accounts?user="+v+"&mint="+view.ShareMint.String(), nil, &bal)
		return bal.Amount
	}
	shares := sharesOf()
	require.Equal(t, uint64(1_994_000), shares)

	// The victim's withdrawal paid out to the attacker's accounts.
	drain, err := s.svc.WithdrawRequest(1, victim.PublicKey(), shares)
	require.NoError(t, err)
	drain.Records, err = s.svc.Records(1, attacker.PublicKey(), "withdraw")
	require.NoError(t, err)
	drainBody := func() gin.H {
		return gin.H{"user": v, "shares": strconv.FormatUint(shares, 10), "records": keyStrings(drain.Records)}
	}
	// The victim's remaining balances pulled into a deposit.
	pullBody := gin.H{"user": v, "amounts": []string{"1000000", "1000000000"}}

	tests := []struct {
		name string
		path string
		body gin.H
		code string
	}{
		{"unsigned withdrawal", "/api/v1/baskets/1/withdraw", drainBody(), "MissingSignature:100"},
		{"withdrawal signed by attacker", "/api/v1/baskets/1/withdraw", s.sign(drainBody(), s.svc.WithdrawIntent(drain, 0, 0), attacker), "BadSignature:101"},
		{"unsigned deposit", "/api/v1/baskets/1/deposit", pullBody, "MissingSignature:100"},
		{"deposit signed by attacker", "/api/v1/baskets/1/deposit", s.signDeposit(gin.H{"user": v, "amounts": []string{"1000000", "1000000000"}}, attacker, 1_000_000, 1_000_000_000), "BadSignature:101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do("POST", tt.path, tt.body)
			assert.Equal(t, gohttp.StatusForbidden, code, env.Error)
			assert.Equal(t, tt.code, env.Code)
		})
	}
	assert.Equal(t, shares, sharesOf())

	// A genuine signature stops covering the request once the payout
	// accounts are swapped.
	honest := s.signWithdraw(gin.H{"user": v, "shares": "1000"}, victim, 1000)
	honest["records"] = keyStrings(drain.Records)
	code, env := s.do("POST", "/api/v1/baskets/1/withdraw", honest)
	assert.Equal(t, gohttp.StatusForbidden, code)
	assert.Equal(t, "BadSignature:101", env.Code)
	delete(honest, "records")
	s.ok("POST", "/api/v1/baskets/1/withdraw", honest, nil)
	assert.Equal(t, shares-1000, sharesOf())

	code, env = s.do("POST", "/api/v1/baskets/1/withdraw", honest)
	assert.Equal(t, gohttp.StatusForbidden, code)
	assert.Equal(t, "IntentReplayed:103", env.Code)
}
