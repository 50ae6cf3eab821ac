// Package common holds process-wide helpers shared by the commands.
package common

// Version is set at build time via -ldflags "-X .../common.Version=..."
var Version = "dev"

// PackageName is used as the default service tag in logs.
const PackageName = "bls-cleanse"
