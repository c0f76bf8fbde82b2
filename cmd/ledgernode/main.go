// Command ledgernode runs the ledger core: it opens the account-chain
// store, wires the ledger, election manager, bootstrap queue and an
// optional wallet, then sweeps elections on a timer until signaled to
// stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/bootstrap"
	"nanoforge.dev/node/cryptoprovider"
	"nanoforge.dev/node/election"
	"nanoforge.dev/node/ledger"
	"nanoforge.dev/node/nodeconfig"
	"nanoforge.dev/node/store"
	"nanoforge.dev/node/walletsrc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := nodeconfig.DefaultConfig()

	fs := flag.NewFlagSet("ledgernode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "path to a TOML config file (overlaid on built-in defaults)")
	network := fs.String("network", "", "override node.network")
	dataDir := fs.String("datadir", "", "override node.data_dir")
	bindAddr := fs.String("bind", "", "override node.bind_addr")
	enableVoting := fs.Bool("enable-voting", false, "override node.enable_voting to true")
	walletKeystore := fs.String("wallet", "", "path to a wallet keystore file to load")
	walletPassphrase := fs.String("wallet-passphrase", "", "passphrase for -wallet")
	generateConfig := fs.String("generate-config", "", "write the default config to this path and exit")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *generateConfig != "" {
		if err := nodeconfig.WriteDefault(*generateConfig); err != nil {
			_, _ = fmt.Fprintf(stderr, "generate-config failed: %v\n", err)
			return 2
		}
		_, _ = fmt.Fprintf(stdout, "wrote default config to %s\n", *generateConfig)
		return 0
	}

	cfg, err := nodeconfig.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config load failed: %v\n", err)
		return 2
	}
	if *network != "" {
		cfg.Node.Network = *network
	}
	if *dataDir != "" {
		cfg.Node.DataDir = *dataDir
	}
	if *bindAddr != "" {
		cfg.Node.BindAddr = *bindAddr
	}
	if *enableVoting {
		cfg.Node.EnableVoting = true
	}
	cfg.Node.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Node.LogLevel))

	if err := nodeconfig.Validate(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	if err := os.MkdirAll(cfg.Node.DataDir, 0o750); err != nil {
		_, _ = fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 2
	}

	_, _ = fmt.Fprintf(stdout, "config: network=%s datadir=%s bind=%s log_level=%s enable_voting=%v peering_port=%d io_threads=%d vote_minimum=%d receive_minimum=%d opencl=%v\n",
		cfg.Node.Network, cfg.Node.DataDir, cfg.Node.BindAddr, cfg.Node.LogLevel, cfg.Node.EnableVoting,
		cfg.Node.PeeringPort, cfg.Node.IOThreads, cfg.Node.VoteMinimum, cfg.Node.ReceiveMinimum, cfg.OpenCL.Enable)
	if *dryRun {
		return 0
	}

	db, err := store.Open(cfg.Node.DataDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "store open failed: %v\n", err)
		return 2
	}
	defer func() { _ = db.Close() }()
	if err := db.Migrate(); err != nil {
		_, _ = fmt.Fprintf(stderr, "store migrate failed: %v\n", err)
		return 2
	}

	crypto := cryptoprovider.Ed25519Provider{}
	l := ledger.New(crypto, ledger.EpochTable{})
	manager := election.NewManager(2*time.Minute, 10*time.Minute)
	queue := bootstrap.NewQueue(10)

	var wallet *walletsrc.Wallet
	var sweepOnConfirm election.ConfirmationFunc
	if *walletKeystore != "" {
		ks, err := walletsrc.LoadKeystoreFile(*walletKeystore)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "wallet keystore load failed: %v\n", err)
			return 2
		}
		seed, err := ks.Open(*walletPassphrase)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "wallet unlock failed: %v\n", err)
			return 2
		}
		wallet = walletsrc.New(crypto, seed)
		genesis := wallet.Account(0)
		_, _ = fmt.Fprintf(stdout, "wallet: unlocked, account[0]=%x\n", genesis.Account)
		sweepOnConfirm = walletsrc.ConfirmationSweeper(db, l, wallet, cfg.ReceiveMinimumAmount())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintln(stdout, "ledgernode: running")
	sweepInterval := 2 * time.Second
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(stdout, "ledgernode: stopped")
			return 0
		case now := <-ticker.C:
			onExpired := func(root blockgraph.Hash) {
				_, _ = fmt.Fprintf(stdout, "election expired: root=%x\n", root)
			}
			manager.Sweep(now, sweepOnConfirm, onExpired)
			if n := queue.Len(); n > 0 {
				_, _ = fmt.Fprintf(stdout, "bootstrap queue: %d pending requests\n", n)
			}
		}
	}
}
