package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/AngleProtocol/merkl-dispute-sub000/cache"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/conf"
	"github.com/AngleProtocol/merkl-dispute-sub000/dispute"
	"github.com/AngleProtocol/merkl-dispute-sub000/iac"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	"github.com/AngleProtocol/merkl-dispute-sub000/metrics/collectors/stake"
	disputeruns "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/dispute_runs"
	rpccalls "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/rpc_calls"
	transactionprocess "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/transaction_process"
	"github.com/AngleProtocol/merkl-dispute-sub000/provider"
	"github.com/AngleProtocol/merkl-dispute-sub000/server"
)

type appOptions struct {
	block  *uint64
	dryRun bool
}

// app holds every long lived dependency of a check or watch.
type app struct {
	conf     *conf.Conf
	logger   logger.Logger
	registry *prometheus.Registry
	status   *server.Status
	runner   *dispute.Runner
	dc       *dispute.Context
	closers  []func() error
}

func newApp(ctx context.Context, c *conf.Conf, opts appOptions) (*app, error) {
	elk, err := logger.NewELKLogger(c.Log.BotName, c.Log.LogstashAddr)
	if err != nil {
		return nil, err
	}
	elk.SetLogLevel(c.Log.Level)
	log := elk.With(logger.WithField("chain_id", c.Chain.ID))

	a := &app{conf: c, logger: log, registry: prometheus.NewRegistry(), status: server.NewStatus()}
	a.closers = append(a.closers, elk.Close)
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var limiter *rate.Limiter
	if c.Chain.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.Chain.RateLimit), max(c.Chain.RateBurst, 1))
	}
	keys := io.OpenKeystore(c.Disputer.KeystoreDir)
	chainIO, err := io.NewETHChainIO(
		c.Chain.RPC,
		keys,
		log,
		transactionprocess.NewPromIndicators(c.Log.BotName, a.registry),
		rpccalls.NewPromIndicators(c.Log.BotName, a.registry),
		limiter,
		c.TxParams(),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { chainIO.Close(); return nil })

	chainID, err := chainIO.GetChainID(ctx)
	if err != nil {
		return nil, err
	}
	if chainID.Uint64() != c.Chain.ID {
		return nil, fmt.Errorf("%w: rpc serves chain %s, config expects %d", conf.ErrInvalidConfig, chainID, c.Chain.ID)
	}

	ethProvider, err := provider.NewETHOnChainProvider(chainIO,
		common.HexToAddress(c.Chain.Distributor), common.HexToAddress(c.Chain.DistributionCreator), c.Chain.ABIDir)
	if err != nil {
		return nil, err
	}
	policy := c.RetryPolicy()
	onChain := provider.NewRetryingOnChainProvider(ethProvider, policy, log)

	httpRoots, err := provider.NewHTTPRootsProvider(c.Roots.BaseURL, c.Chain.ID, time.Duration(c.Roots.TimeoutSec)*time.Second)
	if err != nil {
		return nil, err
	}
	roots := provider.NewRetryingRootsProvider(httpRoots, policy, log)
	store, err := openStore(ctx, c.Cache)
	if err != nil {
		return nil, err
	}
	if store != nil {
		a.closers = append(a.closers, store.Close)
		roots = provider.NewCachedRootsProvider(roots, store, c.Chain.ID, log)
	}

	var signerFactory provider.SignerFactory
	if c.Disputer.Address != "" {
		a.registry.MustRegister(stake.NewCollector(common.HexToAddress(c.Disputer.Address), ethProvider, log))
		f, err := provider.NewKeystoreSignerFactory(keys, c.Disputer.Address, c.Disputer.Password)
		if err != nil {
			return nil, err
		}
		signerFactory = f
	}

	reporters := dispute.MultiReporter{dispute.NewLogReporter(log), a.status}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic != "" {
		publisher := iac.NewPublisher(c.Kafka.Brokers, c.Kafka.Topic)
		a.closers = append(a.closers, publisher.Close)
		reporters = append(reporters, iac.NewReporter(publisher, log))
	}

	a.dc = &dispute.Context{
		ChainID:     c.Chain.ID,
		BlockNumber: opts.block,
		Distributor: common.HexToAddress(c.Chain.Distributor),
		OnChain:     onChain,
		Roots:       roots,
		Signer:      signerFactory,
		Reporter:    reporters,
		Overrides:   c.TxOverrides(),
		DryRun:      c.Disputer.DryRun || opts.dryRun,
	}
	a.runner = dispute.NewRunner(disputeruns.NewPromIndicators(c.Log.BotName, a.registry), log)
	ok = true
	return a, nil
}

func openStore(ctx context.Context, c conf.Cache) (cache.Store, error) {
	switch c.Driver {
	case "bolt":
		return cache.NewBoltStore(c.BoltPath)
	case "redis":
		return cache.NewRedisStore(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, 0)
	}
	return nil, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release resource", logger.WithError(err))
		}
	}
	a.closers = nil
}
