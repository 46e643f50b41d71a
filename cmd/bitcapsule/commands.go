package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/Vikkingg13/BitCapsule/bitcoin"
	"github.com/Vikkingg13/BitCapsule/capsule"
	"github.com/Vikkingg13/BitCapsule/export"
	"github.com/Vikkingg13/BitCapsule/heights"
	"github.com/Vikkingg13/BitCapsule/storage"
	"github.com/Vikkingg13/BitCapsule/threads"
	"github.com/Vikkingg13/BitCapsule/watcher"

	"github.com/pkg/errors"
	"github.com/tokenized/logger"
	"github.com/vrecan/death/v3"
)

var errUsage = errors.New("Usage")

type app struct {
	cfg     *Config
	net     bitcoin.Network
	digest  capsule.Digest
	store   storage.Storage
	heights *heights.Service
	out     io.Writer

	// now is replaced in tests.
	now func() time.Time
}

func newApp(cfg *Config, out io.Writer) (*app, error) {
	net, digest, err := netAndDigest(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.CreateStorage(cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "storage")
	}

	return &app{
		cfg:     cfg,
		net:     net,
		digest:  digest,
		store:   store,
		heights: heights.NewService(cfg.Heights),
		out:     out,
		now:     time.Now,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := storage.Close(a.store); err != nil {
		logger.Warn(ctx, "Failed to close storage : %s", err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "generate":
		return a.generate(ctx, args)
	case "inspect":
		return a.inspect(ctx, args)
	case "decode":
		return a.decode(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "status":
		return a.status(ctx, args)
	case "watch":
		return a.watch(ctx, args)
	}

	return errors.Wrap(errUsage, fmt.Sprintf("unknown command %s", command))
}

// generate creates a capsule locked until a height, or until the estimated height of the first
// block on a date.
func (a *app) generate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(errUsage, "generate <unlock height | YYYY-MM-DD>")
	}

	var height int64
	var wait string
	if date, err := heights.ParseDate(args[0]); err == nil {
		height, err = a.heights.HeightForDate(ctx, date)
		if err != nil {
			return errors.Wrap(err, "height for date")
		}
		wait = heights.DescribeWait(a.now(), date)
	} else {
		height, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errors.Wrap(errUsage, fmt.Sprintf("invalid height or date %s", args[0]))
		}
	}

	c, err := capsule.Assemble(ctx, capsule.Config{
		Net:    a.net,
		Digest: a.digest,
	}, height)
	if err != nil {
		return errors.Wrap(err, "assemble")
	}

	id, err := export.Save(ctx, a.store, c)
	if err != nil {
		return errors.Wrap(err, "save")
	}

	fmt.Fprint(a.out, c.Summary())
	fmt.Fprintf(a.out, "\nCapsule ID: %s\n", id)
	if len(wait) > 0 {
		fmt.Fprintf(a.out, "Approximate unlock time: %s\n", wait)
	}

	return nil
}

func (a *app) inspect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(errUsage, "inspect <redeem script hex>")
	}

	script, err := bitcoin.NewScriptFromStr(args[0])
	if err != nil {
		return errors.Wrap(err, "script")
	}

	info, err := capsule.ParseRedeemScript(script)
	if err != nil {
		return errors.Wrap(err, "parse")
	}

	text, err := script.Text()
	if err != nil {
		return errors.Wrap(err, "text")
	}

	fmt.Fprintf(a.out, "Unlock Height: %d\n", info.UnlockHeight)
	fmt.Fprintf(a.out, "Digest: %s\n", info.Digest.Name())
	fmt.Fprintf(a.out, "Public Key Digest: %x\n", info.PubKeyDigest)
	fmt.Fprintf(a.out, "Script: %s\n", text)

	for _, net := range []bitcoin.Network{bitcoin.MainNet, bitcoin.TestNet} {
		address, err := capsule.EncodeAddress(script, info.Digest, net)
		if err != nil {
			return errors.Wrapf(err, "address %s", net)
		}
		fmt.Fprintf(a.out, "P2SH Address (%s): %s\n", net, address)
	}

	return nil
}

func (a *app) decode(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(errUsage, "decode <base58check text | public key hex>")
	}

	if publicKey, err := bitcoin.PublicKeyFromStr(args[0]); err == nil {
		fmt.Fprintf(a.out, "Type: public key\n")
		fmt.Fprintf(a.out, "Uncompressed: %s\n", publicKey)
		fmt.Fprintf(a.out, "Compressed: %x\n", publicKey.CompressedBytes())
		fmt.Fprintf(a.out, "Public Key Digest (%s): %x\n", a.digest.Name(),
			a.digest.Hash(publicKey.Bytes()))
		return nil
	}

	version, payload, err := bitcoin.Base58CheckDecode(args[0])
	if err != nil {
		return errors.Wrap(err, "base58check")
	}

	fmt.Fprintf(a.out, "Version: 0x%02x\n", version)
	fmt.Fprintf(a.out, "Payload (%d bytes): %s\n", len(payload), hex.EncodeToString(payload))

	if key, err := bitcoin.KeyFromStr(args[0]); err == nil {
		fmt.Fprintf(a.out, "Type: private key (%s)\n", key.Network())
		fmt.Fprintf(a.out, "Public Key: %s\n", key.PublicKey())
	} else if address, err := bitcoin.DecodeAddress(args[0]); err == nil {
		kind := "public key hash"
		if address.IsScriptHash() {
			kind = "script hash"
		}
		fmt.Fprintf(a.out, "Type: %s address (%s)\n", kind, address.Network())
	}

	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.Wrap(errUsage, "list")
	}

	ids, err := export.List(ctx, a.store)
	if err != nil {
		return errors.Wrap(err, "list")
	}

	for _, id := range ids {
		fmt.Fprintln(a.out, id)
	}

	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(errUsage, "status <capsule id>")
	}

	record, err := export.Load(ctx, a.store, args[0])
	if err != nil {
		return errors.Wrap(err, "load")
	}

	current, err := a.heights.CurrentHeight(ctx)
	if err != nil {
		return errors.Wrap(err, "current height")
	}

	c := record.Capsule
	fmt.Fprintf(a.out, "P2SH Address: %s\n", c.Address)
	fmt.Fprintf(a.out, "Unlock Block: %d\n", c.UnlockHeight)
	fmt.Fprintf(a.out, "Current Block: %d\n", current)

	remaining := c.UnlockHeight - int64(current)
	if remaining <= 0 {
		fmt.Fprintf(a.out, "Unlocked\n")
		return nil
	}

	now := a.now()
	unlockTime := heights.EstimateUnlockTime(current, c.UnlockHeight, now,
		a.heights.Config().BlocksPerDay)

	fmt.Fprintf(a.out, "Blocks Remaining: %d\n", remaining)
	fmt.Fprintf(a.out, "Estimated Unlock Date: %s\n", unlockTime.Format(heights.DateFormat))
	if wait := heights.DescribeWait(now, unlockTime); len(wait) > 0 {
		fmt.Fprintf(a.out, "Approximate unlock time: %s\n", wait)
	}

	return nil
}

// watch polls the height oracle, and listens to the block feed when one is configured, until the
// capsule unlocks or the process is signaled.
func (a *app) watch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(errUsage, "watch <capsule id>")
	}

	record, err := export.Load(ctx, a.store, args[0])
	if err != nil {
		return errors.Wrap(err, "load")
	}

	var feed watcher.BlockFeed
	if len(a.cfg.FeedURL) > 0 {
		feed = heights.NewFeed(a.cfg.FeedURL)
	}

	w := watcher.NewWatcher(record.Capsule.UnlockHeight, a.heights, feed,
		time.Duration(a.cfg.WatchFrequency)*time.Second)

	interrupt := make(chan interface{})
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	go d.WaitForDeathWithFunc(func() {
		logger.Info(ctx, "Shutdown requested")
		close(interrupt)
	})

	logger.InfoWithFields(ctx, []logger.Field{
		logger.String("capsule_id", record.ID),
		logger.String("address", record.Capsule.Address),
		logger.Uint64("unlock_height", uint64(record.Capsule.UnlockHeight)),
	}, "Watching capsule")

	if err := w.Run(ctx, interrupt); err != nil {
		if errors.Cause(err) == threads.Interrupted {
			fmt.Fprintf(a.out, "Stopped at block %d, %d blocks remaining\n", w.Height(),
				w.Remaining())
			return nil
		}
		return errors.Wrap(err, "watch")
	}

	fmt.Fprintf(a.out, "Capsule %s unlocked at block %d\n", record.ID, w.Height())
	fmt.Fprintf(a.out, "P2SH Address: %s\n", record.Capsule.Address)
	return nil
}
