// Command beacon runs an in-process beacon chain emulator: it seeds a
// simulated deposit contract with a set of fresh validators and drives the
// node on the wall clock.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/db"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/node"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/pow"
	"github.com/myaccount-club/beacon-chain/schedulers"
	"github.com/myaccount-club/beacon-chain/types"
)

var log = logrus.WithField("prefix", "main")

func main() {
	app := &cli.App{
		Name:  "beacon",
		Usage: "beacon chain emulator",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "validators",
				Usage: "number of in-process validators",
				Value: 8,
			},
			&cli.StringFlag{
				Name:  "spec",
				Usage: "yaml file with chain spec overrides",
			},
			&cli.StringFlag{
				Name:  "datadir",
				Usage: "bolt database path; in-memory storage when empty",
			},
			&cli.Uint64Flag{
				Name:  "genesis-delay",
				Usage: "seconds until genesis",
				Value: 2,
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Usage: "logging level (debug, info, warn)",
				Value: "info",
			},
			&cli.BoolFlag{
				Name:  "no-bls",
				Usage: "disable BLS signature verification",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("Emulator failed")
	}
}

func run(ctx *cli.Context) error {
	formatter := new(prefixed.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	logrus.SetFormatter(formatter)
	if level, err := logrus.ParseLevel(ctx.String("verbosity")); err == nil {
		logrus.SetLevel(level)
	}

	cfg := params.MinimalSpec()
	if path := ctx.String("spec"); path != "" {
		loaded, err := params.LoadSpecFile(path, cfg)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts := []helpers.Option{}
	if ctx.Bool("no-bls") {
		opts = append(opts, helpers.WithoutBLSVerification())
	}
	spec := helpers.New(cfg, opts...)

	var kv db.KeyValue = db.NewMemoryKV()
	if dir := ctx.String("datadir"); dir != "" {
		bolt, err := db.OpenBolt(dir)
		if err != nil {
			return err
		}
		kv = bolt
	}
	defer kv.Close()

	count := ctx.Uint64("validators")
	credentials := make([]*bls.Credentials, count)
	for i := range credentials {
		credentials[i] = bls.NewCredentials(bls.NewKeySigner(bls.RandKey()))
	}

	genesisTime := uint64(time.Now().Unix()) + ctx.Uint64("genesis-delay")
	contract := pow.NewSimulatedDepositContract(spec, credentials, genesisTime, types.Hash32{0x01})

	n := node.New(node.Config{
		Spec:            spec,
		KV:              kv,
		DepositContract: contract,
		Credentials:     credentials,
		Schedulers:      schedulers.NewRealSchedulers(nil),
	})

	chainStart := <-contract.ChainStartEvent()
	if err := n.Start(chainStart); err != nil {
		return err
	}
	go n.RunTicker()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutting down")
	n.Stop()
	return nil
}
