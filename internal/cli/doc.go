// Package cli is the millgrid command line. It parses arguments with cobra,
// layers flag values over the configuration file and environment, and maps
// failures onto process exit codes: 2 for usage and configuration problems,
// 1 for everything else.
package cli
