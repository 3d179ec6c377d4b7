package main

import (
	"context"
	"errors"
	"math/big"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/sketchwager/internal/archive"
	"github.com/mcdev12/sketchwager/internal/client"
	"github.com/mcdev12/sketchwager/internal/escrow"
	"github.com/mcdev12/sketchwager/internal/gateway"
	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/mcdev12/sketchwager/internal/optimistic"
	"github.com/mcdev12/sketchwager/internal/replicated"
	"github.com/mcdev12/sketchwager/internal/scheduler"
	"github.com/mcdev12/sketchwager/internal/session"
	"github.com/mcdev12/sketchwager/internal/words"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("sketchwager exited with error")
	}
}

func run(ctx context.Context, cfg *Config) error {
	clock := clockwork.NewRealClock()

	store, err := replicated.OpenNatsKV(ctx, cfg.Nats.URL, cfg.Session.Code)
	if err != nil {
		return err
	}
	defer store.Close()

	gate, wallet, err := buildGate(ctx, cfg)
	if err != nil {
		return err
	}

	selfID := models.PlayerIDFromWallet(wallet.Hex())
	repo := session.NewRepository(store)
	svc := session.NewService(repo, gate, clock)
	selector := words.NewSelector(rand.New(rand.NewSource(clock.Now().UnixNano())))

	var archiver scheduler.Archiver
	if cfg.Archive.DatabaseURL != "" {
		arc, err := archive.New(ctx, cfg.Archive.DatabaseURL)
		if err != nil {
			// History is a convenience; play on without it.
			log.Warn().Err(err).Msg("session archive unavailable")
		} else {
			defer arc.Close()
			archiver = arc
		}
	}

	sched := scheduler.New(repo, selector, gate, archiver, clock, scheduler.Config{SelfID: selfID})
	recon := optimistic.NewReconciler(clock)
	cl := client.New(repo, svc, sched, recon, gate, clock, selfID)

	if cfg.Session.CreateSession {
		if _, err := svc.CreateSession(ctx, cfg.Session.Code, cfg.Session.WagerAmount, cfg.Session.TotalRounds, cfg.Session.RoundSeconds); err != nil {
			return err
		}
		wager, ok := new(big.Int).SetString(cfg.Session.WagerAmount, 10)
		if !ok || wager.Sign() <= 0 {
			return session.ErrBadWager
		}
		if err := gate.CreateGame(ctx, cfg.Session.Code, wager); err != nil && !errors.Is(err, escrow.ErrGameExists) {
			return err
		}
	}

	if _, err := svc.Join(ctx, wallet.Hex(), cfg.Session.Nickname); err != nil {
		return err
	}

	hub := gateway.NewHub(gateway.DefaultConnectionConfig(), cl)
	server := &http.Server{Addr: cfg.Gateway.Addr, Handler: hub.Handler()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return cl.Run(ctx, hub) })
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Gateway.Addr).Msg("render gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	log.Info().
		Str("session_code", cfg.Session.Code).
		Str("player_id", string(selfID)).
		Msg("sketchwager client running")
	return g.Wait()
}

// buildGate wires the escrow contract when a chain is configured, or an
// in-process gate for wager-free local play.
func buildGate(ctx context.Context, cfg *Config) (escrow.Gate, common.Address, error) {
	if cfg.Chain.RPCURL == "" {
		addr := common.HexToAddress(getEnv("WALLET_ADDR", "0x0000000000000000000000000000000000000001"))
		log.Warn().Msg("no chain configured; using in-process escrow gate")
		return escrow.NewMemoryGate(addr), addr, nil
	}

	gate, err := escrow.NewContractGate(ctx, cfg.Chain.RPCURL, cfg.Chain.ContractAddr, cfg.Chain.WalletKey, cfg.Chain.ChainID)
	if err != nil {
		return nil, common.Address{}, err
	}
	return gate, gate.From(), nil
}
