package stake

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	"github.com/AngleProtocol/merkl-dispute-sub000/metrics/consts"
	"github.com/AngleProtocol/merkl-dispute-sub000/provider"
)

const collectTimeout = 10 * time.Second

// Collector reads the disputer's stake at scrape time, so an operator sees
// an underfunded wallet before a dispute needs it.
type Collector struct {
	disputer common.Address
	reader   provider.StakeReader
	logger   logger.Logger

	required  *prometheus.Desc
	balance   *prometheus.Desc
	allowance *prometheus.Desc
	// 1 when balance covers the required stake.
	ready *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(disputer common.Address, reader provider.StakeReader, logger logger.Logger) *Collector {
	labels := []string{"disputer", "token"}
	return &Collector{
		disputer: disputer,
		reader:   reader,
		logger:   logger,
		required: prometheus.NewDesc(
			consts.DisputePromNamespace+"_stake_required",
			"Dispute amount required by the distributor, in base units",
			labels, nil,
		),
		balance: prometheus.NewDesc(
			consts.DisputePromNamespace+"_stake_balance",
			"Dispute token balance of the disputer, in base units",
			labels, nil,
		),
		allowance: prometheus.NewDesc(
			consts.DisputePromNamespace+"_stake_allowance",
			"Dispute token allowance granted to the distributor, in base units",
			labels, nil,
		),
		ready: prometheus.NewDesc(
			consts.DisputePromNamespace+"_stake_ready",
			"Whether the disputer balance covers the dispute amount",
			labels, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.required
	ch <- c.balance
	ch <- c.allowance
	ch <- c.ready
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	s, err := c.reader.FetchStake(ctx, c.disputer)
	if err != nil {
		c.logger.Error("Failed to read dispute stake", logger.WithError(err))
		return
	}
	disputer := strings.ToLower(c.disputer.Hex())
	token := strings.ToLower(s.Token.Hex())
	ready := 0.0
	if s.Required == nil || s.Balance.Cmp(s.Required) >= 0 {
		ready = 1
	}
	ch <- prometheus.MustNewConstMetric(c.required, prometheus.GaugeValue, toFloat(s.Required), disputer, token)
	ch <- prometheus.MustNewConstMetric(c.balance, prometheus.GaugeValue, toFloat(s.Balance), disputer, token)
	ch <- prometheus.MustNewConstMetric(c.allowance, prometheus.GaugeValue, toFloat(s.Allowance), disputer, token)
	ch <- prometheus.MustNewConstMetric(c.ready, prometheus.GaugeValue, ready, disputer, token)
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
