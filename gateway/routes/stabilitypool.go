// Package routes wires chi HTTP handlers directly over the Stability Pool
// engine. There is no bridge service in front of it: the engine lives in the
// same process, so a handler is a JSON decode, an engine call, and a JSON
// encode.
package routes

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	poolerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/gateway/middleware"
	"github.com/furlabs/stabilitypool/native/stabilitypool"
)

// Scopes required of a bearer token before a handler's engine call is ever
// reached. ScopeDeposit covers every depositor-initiated write; ScopeOffset
// is reserved for the Trove Manager process alone.
const (
	ScopeDeposit = "stabilitypool:deposit"
	ScopeOffset  = "stabilitypool:offset"
)

// StabilityPoolRoutes mounts the depositor- and Trove-Manager-facing HTTP
// surface over a single engine instance.
type StabilityPoolRoutes struct {
	engine *stabilitypool.Engine
	now    func() time.Time
	auth   *middleware.Authenticator
}

// NewStabilityPoolRoutes wires the HTTP surface to engine. now defaults to
// time.Now when nil. auth may be nil, in which case every route is mounted
// unauthenticated — callers must only do this for local/dev deployments.
func NewStabilityPoolRoutes(engine *stabilitypool.Engine, now func() time.Time, auth *middleware.Authenticator) *StabilityPoolRoutes {
	if now == nil {
		now = time.Now
	}
	return &StabilityPoolRoutes{engine: engine, now: now, auth: auth}
}

// Mount registers every route under r. Write routes that move depositor
// funds or trove collateral require ScopeDeposit; offset, the single call
// only the Trove Manager should ever make, requires ScopeOffset. Read routes
// are mounted unauthenticated.
func (s *StabilityPoolRoutes) Mount(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.requireScope(ScopeDeposit))
		r.Post("/provide", s.provide)
		r.Post("/withdraw", s.withdraw)
		r.Post("/withdraw-collateral-gain-to-trove", s.withdrawCollateralGainToTrove)
		r.Post("/front-ends", s.registerFrontEnd)
	})
	r.Group(func(r chi.Router) {
		r.Use(s.requireScope(ScopeOffset))
		r.Post("/offset", s.offset)
	})

	r.Get("/deposits/{addr}", s.getDeposit)
	r.Get("/front-ends/{addr}", s.getFrontEnd)
	r.Get("/pool", s.getPoolState)
}

// requireScope is a no-op passthrough when no Authenticator was wired, so
// tests and trusted-network deployments can still construct routes directly.
func (s *StabilityPoolRoutes) requireScope(scope string) func(http.Handler) http.Handler {
	if s.auth == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.auth.Middleware(scope)
}

// authorizeAs reports whether the request's authenticated identity (if any
// Authenticator is wired) matches claimed. A claimed address must equal the
// one the bearer token was issued for; without that check any caller holding
// a validly scoped token could act as any depositor or as the Trove Manager
// simply by naming a different address in the JSON body.
func (s *StabilityPoolRoutes) authorizeAs(w http.ResponseWriter, r *http.Request, claimed crypto.Address) bool {
	if s.auth == nil {
		return true
	}
	authenticated, ok := middleware.AddressFromContext(r.Context())
	if !ok || authenticated != claimed.String() {
		writeError(w, http.StatusForbidden, errors.New("authenticated identity does not match requested address"))
		return false
	}
	return true
}

type provideRequest struct {
	Depositor   string `json:"depositor"`
	Amount      string `json:"amount"`
	FrontEndTag string `json:"frontEndTag"`
}

func (s *StabilityPoolRoutes) provide(w http.ResponseWriter, r *http.Request) {
	var req provideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	depositor, err := decodeAddress(req.Depositor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.authorizeAs(w, r, depositor) {
		return
	}
	amount, err := decodeAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tag := crypto.Address{}
	if req.FrontEndTag != "" {
		tag, err = decodeAddress(req.FrontEndTag)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := s.engine.ProvideToStabilityPool(depositor, amount, tag, s.now()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, depositView(s.engine, depositor))
}

type withdrawRequest struct {
	Depositor string `json:"depositor"`
	Amount    string `json:"amount"`
}

func (s *StabilityPoolRoutes) withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	depositor, err := decodeAddress(req.Depositor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.authorizeAs(w, r, depositor) {
		return
	}
	amount, err := decodeAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.WithdrawFromStabilityPool(depositor, amount, s.now()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, depositView(s.engine, depositor))
}

type withdrawCollateralGainRequest struct {
	Depositor string `json:"depositor"`
	UpperHint string `json:"upperHint"`
	LowerHint string `json:"lowerHint"`
}

func (s *StabilityPoolRoutes) withdrawCollateralGainToTrove(w http.ResponseWriter, r *http.Request) {
	var req withdrawCollateralGainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	depositor, err := decodeAddress(req.Depositor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.authorizeAs(w, r, depositor) {
		return
	}
	upper, err := decodeOptionalAddress(req.UpperHint)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lower, err := decodeOptionalAddress(req.LowerHint)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.WithdrawCollateralGainToTrove(depositor, upper, lower, s.now()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, depositView(s.engine, depositor))
}

type registerFrontEndRequest struct {
	FrontEnd     string `json:"frontEnd"`
	KickbackRate string `json:"kickbackRate"`
}

func (s *StabilityPoolRoutes) registerFrontEnd(w http.ResponseWriter, r *http.Request) {
	var req registerFrontEndRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	addr, err := decodeAddress(req.FrontEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.authorizeAs(w, r, addr) {
		return
	}
	kickback, err := decodeAmount(req.KickbackRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.RegisterFrontEnd(addr, kickback); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"frontEnd": req.FrontEnd})
}

type offsetRequest struct {
	Caller        string `json:"caller"`
	DebtToOffset  string `json:"debtToOffset"`
	CollateralAdd string `json:"collateralAdd"`
}

// offset is only ever meant to be called by the Trove Manager process
// itself. The engine independently re-checks caller against its own wired
// Trove Manager address, but that check alone can't stop an HTTP client from
// simply asserting the Trove Manager's address in the body — ScopeOffset
// plus authorizeAs is what proves the caller actually holds that identity.
func (s *StabilityPoolRoutes) offset(w http.ResponseWriter, r *http.Request) {
	var req offsetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, err := decodeAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.authorizeAs(w, r, caller) {
		return
	}
	debt, err := decodeAmount(req.DebtToOffset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	coll, err := decodeAmount(req.CollateralAdd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.Offset(caller, debt, coll, s.now()); err != nil {
		writeEngineError(w, err)
		return
	}
	// Offset is the single highest-consequence call this gateway exposes; a
	// correlation id lets the Trove Manager tie its own liquidation log line
	// to this pool's response without relying on chi's request-scoped id.
	resp := poolView(s.engine)
	resp["requestId"] = uuid.NewString()
	writeJSON(w, http.StatusOK, resp)
}

func (s *StabilityPoolRoutes) getDeposit(w http.ResponseWriter, r *http.Request) {
	addr, err := decodeAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, depositView(s.engine, addr))
}

func (s *StabilityPoolRoutes) getFrontEnd(w http.ResponseWriter, r *http.Request) {
	addr, err := decodeAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	compounded, err := s.engine.GetCompoundedFrontEndStake(addr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	loanGain, err := s.engine.GetFrontEndLOANGain(addr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"compoundedStake": compounded.String(),
		"loanGain":        loanGain.String(),
	})
}

func (s *StabilityPoolRoutes) getPoolState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, poolView(s.engine))
}

func depositView(e *stabilitypool.Engine, addr crypto.Address) map[string]string {
	compounded, _ := e.GetCompoundedDeposit(addr)
	collGain, _ := e.GetDepositorCollateralGain(addr)
	loanGain, _ := e.GetDepositorLOANGain(addr)
	return map[string]string{
		"depositor":      addr.String(),
		"compounded":     bigOrZero(compounded),
		"collateralGain": bigOrZero(collGain),
		"loanGain":       bigOrZero(loanGain),
		"furfiPaid":      bigOrZero(e.GetFURFIPaid(addr)),
	}
}

func poolView(e *stabilitypool.Engine) map[string]string {
	return map[string]string{
		"furfiBalance":  bigOrZero(e.GetFURFIBalance()),
		"totalDeposits": bigOrZero(e.GetTotalFURUSDDeposits()),
	}
}

func bigOrZero(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

func decodeAddress(s string) (crypto.Address, error) {
	if s == "" {
		return crypto.Address{}, errors.New("address must not be empty")
	}
	return crypto.DecodeAddress(s)
}

func decodeOptionalAddress(s string) (crypto.Address, error) {
	if s == "" {
		return crypto.Address{}, nil
	}
	return crypto.DecodeAddress(s)
}

func decodeAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.New("amount must be a base-10 integer string")
	}
	return amount, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeEngineError classifies a core/errors sentinel into an HTTP status:
// authorization failures are 403, preconditions are 400, and arithmetic or
// invariant breaches are 500 since they indicate a bug rather than bad input.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, poolerrors.ErrNotTroveManager),
		errors.Is(err, poolerrors.ErrNotLockOwner),
		errors.Is(err, poolerrors.ErrPoolUnauthorized),
		errors.Is(err, poolerrors.ErrTokenUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, poolerrors.ErrProductNotPositive),
		errors.Is(err, poolerrors.ErrOffsetExceedsTotal),
		errors.Is(err, poolerrors.ErrArithmeticOverflow),
		errors.Is(err, poolerrors.ErrArithmeticUnderflow),
		errors.Is(err, poolerrors.ErrDivideByZero):
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}
