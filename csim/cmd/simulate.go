package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/csim/config"
	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/mem/trace"
	"github.com/sarchlab/csim/monitoring"
	"github.com/sarchlab/csim/replay"
	"github.com/sarchlab/csim/report"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()

	envFile, _ := f.GetString("env-file")

	var err error
	if envFile != "" {
		err = config.LoadEnv(envFile)
	} else {
		err = config.LoadEnv()
	}

	if err != nil {
		return config.Config{}, fmt.Errorf("loading environment: %w", err)
	}

	c, err := config.FromEnv(config.Default())
	if err != nil {
		return config.Config{}, err
	}

	if f.Changed("set-bits") {
		c.SetBits, _ = f.GetInt("set-bits")
	}

	if f.Changed("ways") {
		c.Ways, _ = f.GetInt("ways")
	}

	if f.Changed("block-bits") {
		c.BlockBits, _ = f.GetInt("block-bits")
	}

	if f.Changed("trace") {
		c.TraceFile, _ = f.GetString("trace")
	}

	if f.Changed("verbose") {
		c.Verbose, _ = f.GetBool("verbose")
	}

	if f.Changed("record") {
		c.RecordPath, _ = f.GetString("record")
	}

	if f.Changed("monitor") {
		c.Monitor, _ = f.GetBool("monitor")
	}

	if f.Changed("monitor-port") {
		c.MonitorPort, _ = f.GetInt("monitor-port")
		c.Monitor = true
	}

	if f.Changed("open-browser") {
		c.OpenBrowser, _ = f.GetBool("open-browser")
	}

	if f.Changed("log-level") {
		c.LogLevel, _ = f.GetString("log-level")
	}

	return c, c.Validate()
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.Out = out
	logger.ExitFunc = atexit.Exit

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger.SetLevel(lvl)

	return logger, nil
}

func simulate(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// From here on, failures are not usage mistakes. Cobra prints the
	// returned error, so failures are not logged as well.
	cmd.SilenceUsage = true

	c, err := cache.MakeBuilder().
		WithNumSetBits(cfg.SetBits).
		WithWayAssociativity(cfg.Ways).
		WithBlockOffsetBits(cfg.BlockBits).
		Build("Cache")
	if err != nil {
		return err
	}
	defer c.Teardown()

	logger.WithFields(logrus.Fields{
		"sets": c.NumSets(),
		"ways": c.NumWays(),
		"b":    cfg.BlockBits,
		"size": c.TotalSize(),
	}).Info("cache built")

	if logger.IsLevelEnabled(logrus.TraceLevel) {
		c.AcceptHook(trace.NewLogTracer(logger))
	}

	replayer := replay.NewReplayer(c).WithLogger(logger)
	if cfg.Verbose {
		replayer.WithVerboseOutput(cmd.OutOrStdout())
	}

	if cfg.RecordPath != "" {
		recorder, err := datarecording.New(cfg.RecordPath)
		if err != nil {
			return err
		}
		defer recorder.Close()

		tracer := trace.NewDBTracer(recorder)
		c.AcceptHook(tracer)

		logger.WithFields(logrus.Fields{
			"database": cfg.RecordPath + ".sqlite3",
			"run":      tracer.RunID(),
		}).Info("recording accesses")
	}

	if cfg.Monitor {
		stop, err := startMonitor(cfg, c, replayer, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	summary, err := replayer.ReplayFile(cfg.TraceFile)
	if err != nil {
		return err
	}

	reporter := report.NewResultsReporter().WithOutput(cmd.OutOrStdout())

	resultsPath, _ := cmd.Flags().GetString("results")
	reporter.WithResultsPath(resultsPath)

	return reporter.Report(summary.Hits, summary.Misses, summary.Evictions)
}

func startMonitor(
	cfg config.Config,
	c *cache.Cache,
	replayer *replay.Replayer,
	logger *logrus.Logger,
) (stop func(), err error) {
	m := monitoring.NewMonitor()
	if cfg.MonitorPort != 0 {
		m.WithPortNumber(cfg.MonitorPort)
	}

	m.RegisterCache(c)

	total := uint64(0)
	if info, err := os.Stat(cfg.TraceFile); err == nil {
		total = uint64(info.Size())
	}

	bar := m.CreateProgressBar(cfg.TraceFile, total)
	replayer.WithProgressTracker(bar)

	url, err := m.StartServer()
	if err != nil {
		return nil, err
	}

	logger.Warnf("Monitoring simulation with %s", url)

	if cfg.OpenBrowser {
		if err := m.OpenInBrowser(); err != nil {
			logger.WithError(err).Warn("cannot open a browser")
		}
	}

	return func() {
		m.CompleteProgressBar(bar)

		if err := m.StopServer(); err != nil {
			logger.WithError(err).Warn("cannot stop the monitor")
		}
	}, nil
}
