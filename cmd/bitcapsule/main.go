package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Vikkingg13/BitCapsule/bitcoin"
	"github.com/Vikkingg13/BitCapsule/capsule"
	"github.com/Vikkingg13/BitCapsule/heights"
	"github.com/Vikkingg13/BitCapsule/storage"

	"github.com/pkg/errors"
	"github.com/tokenized/config"
	"github.com/tokenized/logger"
)

const usage = `bitcapsule <command> [args]
  generate <unlock height | YYYY-MM-DD>  create and store a new time capsule
  inspect <redeem script hex>            show the unlock height and addresses of a redeem script
  decode <base58check text>              show the version byte and payload
  decode <public key hex>                show both key serializations and the key digest
  list                                   list stored capsule ids
  status <capsule id>                    show blocks remaining until unlock
  watch <capsule id>                     wait until the capsule unlocks`

type Config struct {
	Network        string `default:"mainnet" envconfig:"BITCOIN_NETWORK" json:"network"`
	Digest         string `default:"sha256d" envconfig:"DIGEST" json:"digest"`
	FeedURL        string `envconfig:"FEED_URL" json:"feed_url"`
	WatchFrequency int    `default:"600" envconfig:"WATCH_FREQUENCY" json:"watch_frequency"` // Seconds between polls

	Logging struct {
		IsDevelopment bool   `default:"false" envconfig:"DEVELOPMENT" json:"development"`
		IsText        bool   `default:"true" envconfig:"LOG_TEXT" json:"text"`
		FilePath      string `envconfig:"LOG_FILE_PATH" json:"file_path"`
	} `json:"logging"`

	Heights heights.Config `json:"heights"`
	Storage storage.Config `json:"storage"`
}

func main() {
	ctx := logger.ContextWithLogger(context.Background(), true, true, "")

	cfg := &Config{}
	if err := config.LoadConfig(ctx, cfg); err != nil {
		logger.Fatal(ctx, "Failed to load config : %s", err)
	}

	ctx = logger.ContextWithLogger(context.Background(), cfg.Logging.IsDevelopment,
		cfg.Logging.IsText, cfg.Logging.FilePath)

	maskedConfig, err := config.MarshalJSONMaskedRaw(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to marshal config : %s", err)
	}

	logger.InfoWithFields(ctx, []logger.Field{
		logger.JSON("config", maskedConfig),
	}, "Config")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	a, err := newApp(cfg, os.Stdout)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize : %s", err)
	}
	defer a.close(ctx)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Cause(err) == errUsage {
			fmt.Println(usage)
		}
		a.close(ctx)
		logger.Fatal(ctx, "Failed to %s : %s", os.Args[1], err)
	}
}

// netAndDigest resolves the configured network and digest names.
func netAndDigest(cfg *Config) (bitcoin.Network, capsule.Digest, error) {
	net := bitcoin.NetworkFromString(cfg.Network)
	if net == bitcoin.InvalidNet {
		return net, nil, fmt.Errorf("Unknown network : %s", cfg.Network)
	}

	digest, err := capsule.DigestFromName(cfg.Digest)
	if err != nil {
		return net, nil, errors.Wrap(err, "digest")
	}

	return net, digest, nil
}
