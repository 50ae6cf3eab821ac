package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/autonode/bls-cleanse/common"
	"github.com/autonode/bls-cleanse/httpserver"
)

const envPrefix = "BLS_CLEANSE_"

func env(name string) []string {
	return []string{envPrefix + name}
}

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureConfirmServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ConfirmListenAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              30 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ValidatorConfigFlag = &cli.StringFlag{
	Name:    "validator-config",
	EnvVars: env("VALIDATOR_CONFIG"),
	Usage:   "AutoNode validator config JSON file (validator-addr)",
}

var NodeConfigFlag = &cli.StringFlag{
	Name:    "node-config",
	EnvVars: env("NODE_CONFIG"),
	Usage:   "AutoNode node config JSON file (endpoint, public-bls-keys)",
}

var ValidatorAddrFlag = &cli.StringFlag{
	Name:    "validator-addr",
	EnvVars: env("VALIDATOR_ADDR"),
	Usage:   "validator one1... address, overrides --validator-config",
}

var EndpointFlag = &cli.StringFlag{
	Name:    "endpoint",
	Aliases: []string{"node"},
	EnvVars: env("ENDPOINT"),
	Usage:   "Harmony RPC endpoint, overrides --node-config",
}

var BLSKeysFlag = &cli.StringSliceFlag{
	Name:    "bls-key",
	EnvVars: env("BLS_KEYS"),
	Usage:   "public BLS key run by this node (repeatable), overrides --node-config",
}

var HmyBinaryFlag = &cli.StringFlag{
	Name:    "hmy-binary",
	Value:   "hmy",
	EnvVars: env("HMY_BINARY"),
	Usage:   "path to the hmy CLI used for shard lookups and key removal",
}

var PassphraseFileFlag = &cli.StringFlag{
	Name:    "passphrase-file",
	EnvVars: env("PASSPHRASE_FILE"),
	Usage:   "passphrase file handed to hmy staking edit-validator",
}

var RPCTimeoutFlag = &cli.DurationFlag{
	Name:    "rpc-timeout",
	Value:   30 * time.Second,
	EnvVars: env("RPC_TIMEOUT"),
	Usage:   "timeout of a single RPC call (0 disables)",
}

var ReportStorageFlag = &cli.StringSliceFlag{
	Name:    "report-storage",
	EnvVars: env("REPORT_STORAGE"),
	Usage:   "location URI(s) to archive reports in: file:///dir, s3://bucket/prefix, ipfs://host:port/dir",
}

var ConfirmListenAddrFlag = &cli.StringFlag{
	Name:    "confirm-listen-addr",
	EnvVars: env("CONFIRM_LISTEN_ADDR"),
	Usage:   "answer confirmations over HTTP on this address instead of the terminal",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint on the confirmation server",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var NodeFlags = []cli.Flag{
	ValidatorConfigFlag,
	NodeConfigFlag,
	ValidatorAddrFlag,
	EndpointFlag,
	BLSKeysFlag,
	HmyBinaryFlag,
	PassphraseFileFlag,
	RPCTimeoutFlag,
}
