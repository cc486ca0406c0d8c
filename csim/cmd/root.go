// Package cmd provides the command-line interface of csim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csim -s <s> -E <E> -b <b> -t <tracefile>",
		Short: "csim simulates a set-associative LRU cache on a memory trace.",
		Long: `csim replays a memory trace through a cache with 2^s sets of E ` +
			`lines each and 2^b-byte blocks, and reports the number of hits, ` +
			`misses, and evictions. Flags may also be given as CSIM_* ` +
			`environment variables or in a .env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return simulate(cmd)
		},
	}

	f := cmd.Flags()
	f.IntP("set-bits", "s", 0, "number of set index bits (2^s sets)")
	f.IntP("ways", "E", 0, "associativity (lines per set)")
	f.IntP("block-bits", "b", 0, "number of block bits (2^b bytes per block)")
	f.StringP("trace", "t", "", "trace file to replay")
	f.BoolP("verbose", "v", false, "print the outcome of every record")
	f.String("record", "",
		"record every access into <record>.sqlite3")
	f.Bool("monitor", false, "serve live progress over HTTP")
	f.Int("monitor-port", 0, "port of the monitoring server")
	f.Bool("open-browser", false, "open the monitoring page in a browser")
	f.String("log-level", "", "log level (panic, fatal, error, warning, "+
		"info, debug, trace)")
	f.String("env-file", "", "load default settings from this file "+
		"instead of .env")
	f.String("results", ".csim_results",
		"file receiving the raw counters, empty to disable")

	return cmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
