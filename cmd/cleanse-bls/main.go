package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/autonode/bls-cleanse/chain"
	"github.com/autonode/bls-cleanse/cleanse"
	"github.com/autonode/bls-cleanse/cmd/flags"
	"github.com/autonode/bls-cleanse/config"
	"github.com/autonode/bls-cleanse/confirm"
	"github.com/autonode/bls-cleanse/httpserver"
	"github.com/autonode/bls-cleanse/interfaces"
	"github.com/autonode/bls-cleanse/storage"
)

// exitValidatorNotFound matches the exit status of the AutoNode tooling.
const exitValidatorNotFound = 255

const archiveTimeout = time.Minute

var cleanseFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:  "hard",
		Usage: "remove ALL BLS keys that are not this node's BLS key",
	},
	&cli.BoolFlag{
		Name:  "keep-shard",
		Usage: "remove ALL BLS keys that are not this node's shard",
	},
	&cli.BoolFlag{
		Name:    "yes",
		EnvVars: []string{"BLS_CLEANSE_YES"},
		Usage:   "answer yes to all interaction",
	},
	&cli.DurationFlag{
		Name:  "election-poll-interval",
		Value: cleanse.DefaultElectionPollInterval,
		Usage: "delay between validator reads while waiting for election",
	},
	&cli.DurationFlag{
		Name:  "max-election-wait",
		Value: 0,
		Usage: "give up waiting for election after this long (0 waits until interrupted)",
	},
	&cli.DurationFlag{
		Name:  "epoch-poll-interval",
		Value: cleanse.DefaultEpochPollInterval,
		Usage: "delay between block header reads while inside the epoch safe margin",
	},
	flags.ReportStorageFlag,
	flags.ConfirmListenAddrFlag,
	flags.PprofFlag,
}

func main() {
	app := &cli.App{
		Name:  "cleanse-bls",
		Usage: "Cleanse BLS keys associated with this node's validator",
		Description: "By default, BLS keys that earned no reward in the current epoch are removed.\n" +
			"--hard removes every key this node does not run, --keep-shard every key of another shard.",
		Flags:  append(append(cleanseFlags, flags.NodeFlags...), flags.LogFlags...),
		Action: runCleanse,
		Commands: []*cli.Command{
			{
				Name:      "report",
				Usage:     "print an archived cleanse report",
				ArgsUsage: "<report-id>",
				Flags:     []cli.Flag{flags.ReportStorageFlag},
				Action:    runReport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func selectPolicy(cCtx *cli.Context) (interfaces.Policy, error) {
	hard, keepShard := cCtx.Bool("hard"), cCtx.Bool("keep-shard")
	switch {
	case hard && keepShard:
		return "", errors.New("--hard and --keep-shard are mutually exclusive")
	case hard:
		return interfaces.HardCleanse, nil
	case keepShard:
		return interfaces.ShardCleanse, nil
	default:
		return interfaces.RewardCleanse, nil
	}
}

func runCleanse(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	policy, err := selectPolicy(cCtx)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Sources{
		ValidatorConfigPath: cCtx.String(flags.ValidatorConfigFlag.Name),
		NodeConfigPath:      cCtx.String(flags.NodeConfigFlag.Name),
		Validator:           cCtx.String(flags.ValidatorAddrFlag.Name),
		Endpoint:            cCtx.String(flags.EndpointFlag.Name),
		LocalKeys:           cCtx.StringSlice(flags.BLSKeysFlag.Name),
	})
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Restore default signal handling after the first one so a second signal terminates.
	context.AfterFunc(ctx, stop)

	logger.Info("Connecting to Harmony RPC", "endpoint", cfg.Endpoint)
	client, err := chain.Dial(ctx, chain.Config{
		Endpoint:         cfg.Endpoint,
		ValidatorAddress: cfg.Validator,
		HmyBinary:        cCtx.String(flags.HmyBinaryFlag.Name),
		PassphraseFile:   cCtx.String(flags.PassphraseFileFlag.Name),
		RPCTimeout:       cCtx.Duration(flags.RPCTimeoutFlag.Name),
	}, logger)
	if err != nil {
		logger.Error("Failed to dial RPC", "err", err)
		return err
	}
	defer client.Close()

	autoConfirm := cCtx.Bool("yes")
	confirmer, closeConfirmer, err := setupConfirmer(cCtx, logger, autoConfirm)
	if err != nil {
		return err
	}
	defer closeConfirmer()

	reporter := cleanse.MultiReporter{cleanse.LogReporter{Log: logger}}
	if uris := cCtx.StringSlice(flags.ReportStorageFlag.Name); len(uris) > 0 {
		backend, err := storage.NewStorageBackendFactory(logger).CreateMultiBackend(uris)
		if err != nil {
			logger.Error("Failed to configure report storage", "err", err)
			return err
		}
		reporter = append(reporter, storage.NewReportArchive(backend, logger).AsReporter(archiveTimeout))
	}

	session := cleanse.NewSession(cleanse.Config{
		Validator:            cfg.Validator,
		LocalKeys:            cfg.KeySet(),
		ElectionPollInterval: cCtx.Duration("election-poll-interval"),
		MaxElectionWait:      cCtx.Duration("max-election-wait"),
		EpochPollInterval:    cCtx.Duration("epoch-poll-interval"),
	}, client, confirmer, reporter, logger)

	_, runErr := session.Run(ctx, policy, autoConfirm)
	return exitError(logger, cfg.Validator, runErr)
}

// exitError maps a session outcome to the command result. A validator that is
// not elected is not a failure; an unknown validator exits with status 255.
func exitError(logger *slog.Logger, validator string, runErr error) error {
	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, interfaces.ErrValidatorNotFound):
		logger.Error("Validator not found on chain", "validator", validator)
		return cli.Exit(runErr.Error(), exitValidatorNotFound)
	case errors.Is(runErr, interfaces.ErrValidatorNotElected):
		logger.Info("Validator is not elected, nothing to cleanse")
		return nil
	default:
		logger.Error("Cleanse failed", "err", runErr)
		return runErr
	}
}

// setupConfirmer picks where operator answers come from. With autoConfirm no
// question is ever asked.
func setupConfirmer(cCtx *cli.Context, logger *slog.Logger, autoConfirm bool) (interfaces.Confirmer, func(), error) {
	if autoConfirm {
		return confirm.Always(true), func() {}, nil
	}

	if cCtx.String(flags.ConfirmListenAddrFlag.Name) != "" {
		remote := httpserver.NewRemoteConfirmer(logger)
		server := httpserver.New(flags.ConfigureConfirmServer(cCtx, logger), httpserver.NewHandler(remote, logger))
		if err := server.RunInBackground(); err != nil {
			logger.Error("Failed to start confirmation server", "err", err)
			return nil, nil, err
		}
		return remote, server.Shutdown, nil
	}

	terminal, closeTerminal, err := confirm.OpenTerminal(logger)
	if err != nil {
		logger.Error("No terminal available for confirmations", "err", err)
		return nil, nil, err
	}
	return terminal, closeTerminal, nil
}

func runReport(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	if cCtx.NArg() != 1 {
		return cli.ShowSubcommandHelp(cCtx)
	}
	id, err := interfaces.NewContentIDFromHex(cCtx.Args().First())
	if err != nil {
		return err
	}

	uris := cCtx.StringSlice(flags.ReportStorageFlag.Name)
	if len(uris) == 0 {
		return fmt.Errorf("--%s is required", flags.ReportStorageFlag.Name)
	}
	backend, err := storage.NewStorageBackendFactory(logger).CreateMultiBackend(uris)
	if err != nil {
		return err
	}

	report, err := storage.NewReportArchive(backend, logger).Load(cCtx.Context, id)
	if err != nil {
		logger.Error("Failed to load report", "id", id.String(), "err", err)
		return err
	}

	enc := json.NewEncoder(cCtx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
