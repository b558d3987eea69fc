// Package config loads parbench settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

// Default configuration values.
const (
	DefaultWorkload = "matrix"
	DefaultMode     = "static"

	// DefaultSize is the matrix dimension; one work item per row.
	DefaultSize = 1000

	// DefaultWorkers of zero means one worker per logical core.
	DefaultWorkers = 0

	DefaultFill   = "ones"
	DefaultSeed   = 1
	DefaultOutput = "pretty"

	DefaultImageInput  = "./images"
	DefaultImageOutput = "./out"
	DefaultSigma       = 2.0

	DefaultLogLevel     = "info"
	DefaultConsoleLevel = "warn"

	// EnvPrefix prefixes environment overrides, e.g. PARBENCH_WORKERS.
	EnvPrefix = "PARBENCH"
)

// Workload names.
const (
	WorkloadMatrix = "matrix"
	WorkloadImage  = "image"
)

// DefaultImageExtensions are the extensions the image workload picks up.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png"}
