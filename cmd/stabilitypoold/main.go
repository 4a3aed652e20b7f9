// Command stabilitypoold wires the Stability Pool engine and its
// collaborators into a single serving process: config, structured logging,
// Prometheus metrics, and a chi HTTP surface, with a graceful shutdown on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/furlabs/stabilitypool/config"
	"github.com/furlabs/stabilitypool/crypto"
	authmw "github.com/furlabs/stabilitypool/gateway/middleware"
	"github.com/furlabs/stabilitypool/gateway/routes"
	nativecommon "github.com/furlabs/stabilitypool/native/common"
	"github.com/furlabs/stabilitypool/native/issuance"
	"github.com/furlabs/stabilitypool/native/pools"
	"github.com/furlabs/stabilitypool/native/stabilitypool"
	"github.com/furlabs/stabilitypool/native/tokens"
	"github.com/furlabs/stabilitypool/native/vesting"
	"github.com/furlabs/stabilitypool/observability/logging"
	"github.com/furlabs/stabilitypool/observability/metrics"
)

func main() {
	configPath := flag.String("config", "./stabilitypoold.toml", "path to the TOML configuration file")
	env := flag.String("env", "production", "deployment environment label for logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.SetupWithFile("stabilitypoold", *env, cfg.LogFile)

	if err := run(cfg, logger); err != nil {
		logger.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	poolAddr, err := crypto.DecodeAddress(cfg.PoolAddress)
	if err != nil {
		return errors.New("invalid PoolAddress: " + err.Error())
	}
	troveManagerAddr, err := crypto.DecodeAddress(cfg.TroveManagerAddress)
	if err != nil {
		return errors.New("invalid TroveManagerAddress: " + err.Error())
	}
	adminKeyBytes, err := hex.DecodeString(cfg.AdminKey)
	if err != nil {
		return errors.New("invalid AdminKey: " + err.Error())
	}
	adminKey, err := crypto.PrivateKeyFromBytes(adminKeyBytes)
	if err != nil {
		return err
	}
	adminAddr := adminKey.PubKey().Address()

	schedule, err := issuance.LoadSchedule(cfg.IssuanceScheduleFile)
	if err != nil {
		return err
	}

	furusd := tokens.NewFURUSDToken()
	loan := tokens.NewLOANToken(adminAddr, time.Now())
	loan.SetVestingFactory(adminAddr)
	activePool := pools.NewActivePool()
	defaultPool := pools.NewDefaultPool()
	collSurplus := pools.NewCollSurplusPool()
	vestingRegistry := vesting.NewRegistry(adminAddr, loan)
	vault := issuance.NewCommunityIssuance(adminAddr, loan, schedule, time.Now())

	engine := stabilitypool.NewEngine(poolAddr)
	engine.SetTroveManager(troveManagerAddr)
	engine.SetFURUSDToken(furusd)
	engine.SetActivePool(activePool)
	engine.SetCommunityIssuance(vault)
	engine.SetBorrowerOperations(&externalTroveManager{})
	engine.SetSystemHealth(&externalTroveManager{healthy: true})
	engine.SetPauses(&configPauseView{paused: cfg.Paused})

	furusd.SetStabilityPool(poolAddr)
	furusd.SetTroveManager(troveManagerAddr)
	activePool.SetStabilityPool(poolAddr)
	activePool.SetTroveManager(troveManagerAddr)
	defaultPool.SetTroveManager(troveManagerAddr)
	collSurplus.SetTroveManager(troveManagerAddr)
	vault.SetStabilityPool(poolAddr)

	_ = vestingRegistry

	m := metrics.StabilityPool()
	publishPoolGauges(engine, m)

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(30 * time.Second))

	var authenticator *authmw.Authenticator
	if cfg.AuthEnabled {
		authenticator = authmw.NewAuthenticator(authmw.AuthConfig{
			Enabled:    true,
			HMACSecret: cfg.AuthHMACSecret,
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			ClockSkew:  time.Duration(cfg.AuthClockSkewSeconds) * time.Second,
		}, slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	} else {
		logger.Warn("AuthEnabled is false: every write route accepts the caller's self-declared address unauthenticated")
	}

	mux.Handle("/metrics", promhttp.Handler())
	mux.Route("/v1/stabilitypool", func(r chi.Router) {
		routes.NewStabilityPoolRoutes(engine, time.Now, authenticator).Mount(r)
	})

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.ListenAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed, forcing close", "error", err)
		return server.Close()
	}
	return nil
}

func publishPoolGauges(e *stabilitypool.Engine, m *metrics.StabilityPoolMetrics) {
	m.SetTotalDeposits(bigToFloat(e.GetTotalFURUSDDeposits()))
	m.SetFURFIBalance(bigToFloat(e.GetFURFIBalance()))
}

func bigToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}

// externalTroveManager stands in for the Trove Manager / Borrower
// Operations service this process expects to be deployed alongside. Trove
// lifecycle and collateralization accounting are out of this pool's scope;
// this type exists only so the engine's two narrow collaborator interfaces
// (HasActiveTrove/MoveFURFIGainToTrove, NoUnderCollateralizedTroveExists)
// have something to call in a standalone deployment. A production wiring
// replaces this with an RPC client to the real Trove Manager process.
type externalTroveManager struct {
	healthy bool
}

func (e *externalTroveManager) HasActiveTrove(depositor crypto.Address) (bool, error) {
	return true, nil
}

func (e *externalTroveManager) MoveFURFIGainToTrove(caller, depositor crypto.Address, amount *big.Int, upperHint, lowerHint crypto.Address) error {
	return nil
}

func (e *externalTroveManager) NoUnderCollateralizedTroveExists() (bool, error) {
	return e.healthy, nil
}

// configPauseView implements nativecommon.PauseView off the static config
// flag loaded at startup. A future revision can back this with a live,
// admin-toggled store instead of requiring a restart.
type configPauseView struct {
	paused bool
}

func (c *configPauseView) IsPaused(module string) bool { return c.paused }
