package main

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	flags "github.com/jessevdk/go-flags"

	"github.com/lnoperator/advisor/internal/actionsconfig"
	"github.com/lnoperator/advisor/internal/lndsource"
)

// configParams is the flag/config-file surface, the same dual-source shape
// Bitcoinite-regolancer's configParams/loadConfig split uses: flags parsed
// first to find --config, then the file (toml or json) layered underneath,
// then flags re-parsed so the command line always wins.
type configParams struct {
	Config string `short:"f" long:"config" description:"config file path (.toml or .json)"`

	Connect          string `short:"c" long:"connect" description:"connect to lnd using host:port" toml:"connect"`
	TLSCert          string `short:"t" long:"tlscert" description:"path to tls.cert" toml:"tlscert"`
	MacaroonDir      string `long:"macaroon-dir" description:"path to the macaroon directory" toml:"macaroon_dir"`
	MacaroonFilename string `long:"macaroon-filename" description:"macaroon filename" toml:"macaroon_filename"`
	Network          string `short:"n" long:"network" description:"bitcoin network to use" toml:"network"`

	MinChannelForwards           int     `long:"min-channel-forwards" toml:"min_channel_forwards"`
	MinOutFeeForwardFraction     float64 `long:"min-out-fee-forward-fraction" toml:"min_out_fee_forward_fraction"`
	MinChannelBalanceFraction    float64 `long:"min-channel-balance-fraction" toml:"min_channel_balance_fraction"`
	MinRebalanceDistance         float64 `long:"min-rebalance-distance" toml:"min_rebalance_distance"`
	LargestForwardMarginFraction float64 `long:"largest-forward-margin-fraction" toml:"largest_forward_margin_fraction"`
	MinFeeIncreaseDistance       float64 `long:"min-fee-increase-distance" toml:"min_fee_increase_distance"`
	FeeIncreaseMultiplier        float64 `long:"fee-increase-multiplier" toml:"fee_increase_multiplier"`
	FeeDecreaseWaitDays          float64 `long:"fee-decrease-wait-days" toml:"fee_decrease_wait_days"`
	MinInflowFraction            float64 `long:"min-inflow-fraction" toml:"min_inflow_fraction"`
	MaxFeeRate                   int64   `long:"max-fee-rate" toml:"max_fee_rate"`
	Days                         uint32  `long:"days" toml:"days"`

	NodeCacheFilename string `long:"node-cache-filename" description:"sqlite file to persist peer aliases across restarts" toml:"node_cache_filename"`
	NodeCacheLifetime int     `long:"node-cache-lifetime" description:"minutes before a cached alias is treated as stale" toml:"node_cache_lifetime"`

	DebounceSeconds int `long:"debounce-seconds" description:"seconds to coalesce bursts of change events before refreshing" toml:"debounce_seconds"`
	BackoffSeconds  int `long:"backoff-seconds" description:"seconds to wait after a failed refresh before retrying" toml:"backoff_seconds"`

	HTTPAddr string `long:"http-addr" description:"address for advisor serve's HTTP surface" toml:"http_addr"`
}

func defaultParams() configParams {
	cfg := actionsconfig.Default()
	return configParams{
		Network:                      "mainnet",
		MacaroonFilename:             "admin.macaroon",
		MinChannelForwards:           cfg.MinChannelForwards,
		MinOutFeeForwardFraction:     cfg.MinOutFeeForwardFraction,
		MinChannelBalanceFraction:    cfg.MinChannelBalanceFraction,
		MinRebalanceDistance:         cfg.MinRebalanceDistance,
		LargestForwardMarginFraction: cfg.LargestForwardMarginFraction,
		MinFeeIncreaseDistance:       cfg.MinFeeIncreaseDistance,
		FeeIncreaseMultiplier:        cfg.FeeIncreaseMultiplier,
		FeeDecreaseWaitDays:          cfg.FeeDecreaseWaitDays,
		MinInflowFraction:            cfg.MinInflowFraction,
		MaxFeeRate:                   cfg.MaxFeeRate,
		Days:                         cfg.Days,
		NodeCacheLifetime:            60,
		DebounceSeconds:              5,
		BackoffSeconds:               10,
		HTTPAddr:                     "127.0.0.1:8080",
	}
}

// loadConfig parses flags once to discover --config, layers the config
// file over the defaults if one was given, then re-parses flags so
// the command line takes final precedence, mirroring loadConfig/params in
// the reference regolancer main.go.
func loadConfig(args []string) (configParams, error) {
	params := defaultParams()

	var probe configParams
	if _, err := flags.NewParser(&probe, flags.IgnoreUnknown).ParseArgs(args); err != nil {
		return params, err
	}

	if probe.Config != "" {
		if strings.HasSuffix(probe.Config, ".toml") {
			if _, err := toml.DecodeFile(probe.Config, &params); err != nil {
				return params, err
			}
		} else {
			f, err := os.Open(probe.Config)
			if err != nil {
				return params, err
			}
			defer f.Close()
			if err := json.NewDecoder(f).Decode(&params); err != nil {
				return params, err
			}
		}
	}

	if _, err := flags.NewParser(&params, flags.Default).ParseArgs(args); err != nil {
		return params, err
	}

	return params, nil
}

func (p configParams) lndConfig() lndsource.Config {
	return lndsource.Config{
		Connect:          p.Connect,
		TLSCertPath:      p.TLSCert,
		MacaroonDir:      p.MacaroonDir,
		MacaroonFilename: p.MacaroonFilename,
		Network:          p.Network,
	}
}

func (p configParams) actionsConfig() actionsconfig.ActionsConfig {
	return actionsconfig.ActionsConfig{
		MinChannelForwards:           p.MinChannelForwards,
		MinOutFeeForwardFraction:     p.MinOutFeeForwardFraction,
		MinChannelBalanceFraction:    p.MinChannelBalanceFraction,
		MinRebalanceDistance:         p.MinRebalanceDistance,
		LargestForwardMarginFraction: p.LargestForwardMarginFraction,
		MinFeeIncreaseDistance:       p.MinFeeIncreaseDistance,
		FeeIncreaseMultiplier:        p.FeeIncreaseMultiplier,
		FeeDecreaseWaitDays:          p.FeeDecreaseWaitDays,
		MinInflowFraction:            p.MinInflowFraction,
		MaxFeeRate:                   p.MaxFeeRate,
		Days:                         p.Days,
	}
}

func (p configParams) nodeCacheLifetime() time.Duration {
	return time.Duration(p.NodeCacheLifetime) * time.Minute
}

func fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
