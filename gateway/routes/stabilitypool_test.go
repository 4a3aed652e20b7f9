package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/gateway/middleware"
	"github.com/furlabs/stabilitypool/native/stabilitypool"
)

const routesTestSecret = "routes-test-secret"

func mustAddress(t *testing.T) crypto.Address {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key.PubKey().Address()
}

func newTestRouter(t *testing.T, auth *middleware.Authenticator) (*httptest.Server, crypto.Address) {
	t.Helper()
	pool := mustAddress(t)
	engine := stabilitypool.NewEngine(pool)

	mux := chi.NewRouter()
	mux.Route("/v1/stabilitypool", func(r chi.Router) {
		NewStabilityPoolRoutes(engine, time.Now, auth).Mount(r)
	})
	return httptest.NewServer(mux), pool
}

func signRoutesToken(t *testing.T, addr string, scope string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": scope,
		"addr":  addr,
	})
	signed, err := token.SignedString([]byte(routesTestSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestProvideRejectsBodyAddressNotMatchingAuthenticatedCaller(t *testing.T) {
	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    true,
		HMACSecret: routesTestSecret,
	}, nil)
	srv, _ := newTestRouter(t, auth)
	defer srv.Close()

	victim := mustAddress(t)
	attacker := mustAddress(t)

	// The bearer token proves control of attacker's address, but the body
	// names the victim as the depositor. Before the fix this impersonation
	// would reach the engine; now it must be refused before any engine call.
	body, _ := json.Marshal(provideRequest{Depositor: victim.String(), Amount: "1000000000000000000"})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/stabilitypool/provide", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signRoutesToken(t, attacker.String(), ScopeDeposit))
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for a mismatched depositor address, got %d", res.StatusCode)
	}
}

func TestOffsetRejectsCallerNotMatchingAuthenticatedIdentity(t *testing.T) {
	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    true,
		HMACSecret: routesTestSecret,
	}, nil)
	srv, _ := newTestRouter(t, auth)
	defer srv.Close()

	troveManager := mustAddress(t)
	attacker := mustAddress(t)

	// Attacker holds a validly offset-scoped token for its own address but
	// claims to be the Trove Manager in the request body.
	body, _ := json.Marshal(offsetRequest{Caller: troveManager.String(), DebtToOffset: "0", CollateralAdd: "0"})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/stabilitypool/offset", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signRoutesToken(t, attacker.String(), ScopeOffset))
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 when the claimed caller doesn't match the authenticated identity, got %d", res.StatusCode)
	}
}

func TestMountWithoutAuthenticatorIsUnauthenticatedPassthrough(t *testing.T) {
	srv, pool := newTestRouter(t, nil)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/v1/stabilitypool/pool")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected the read route to succeed unauthenticated, got %d", res.StatusCode)
	}
	_ = pool
}
