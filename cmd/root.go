package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvcharts/internal/analysis"
	"github.com/KaramelBytes/csvcharts/internal/catalog"
	cfgpkg "github.com/KaramelBytes/csvcharts/internal/config"
	"github.com/KaramelBytes/csvcharts/internal/loader"
	"github.com/KaramelBytes/csvcharts/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// HTTP flag (overrides config if set)
	flagHTTPTimeoutSec int

	// Loaded configuration and logger
	cfg *cfgpkg.Global
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "csvcharts",
	Short: "csvcharts: explore CSV datasets as charts",
	Long: `csvcharts loads a CSV file or URL, infers which columns are numeric or categorical,
and draws frequency bars, histograms or scatter plots from the selected columns.
Charts are written as HTML (ECharts), PNG or SVG, or served live by the dashboard server.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.csvcharts/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds when fetching URLs (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so commands still run
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	// Apply CLI overrides if provided
	if rootCmd.PersistentFlags().Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}

	log = newLogger()
}

func newLogger() *logrus.Logger {
	l, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Debug: debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using text logs at info level\n", err)
		l, _ = logging.New(logging.Options{Debug: debug})
	}
	return l
}

// ensureConfig loads configuration when the command runs without Execute,
// as the tests do.
func ensureConfig() {
	if cfg == nil {
		loadConfig()
		return
	}
	if log == nil {
		log = newLogger()
	}
}

func newAggregator() analysis.Aggregator {
	ensureConfig()
	agg := analysis.DefaultAggregator()
	if cfg.SampleSize > 0 {
		agg.Inferencer.SampleSize = cfg.SampleSize
	}
	if cfg.NumericThreshold > 0 && cfg.NumericThreshold < 1 {
		agg.Inferencer.Threshold = cfg.NumericThreshold
	}
	if cfg.MaxCategories > 0 {
		agg.MaxCategories = cfg.MaxCategories
	}
	if cfg.DefaultBins > 0 {
		agg.DefaultBins = cfg.DefaultBins
	}
	return agg
}

func newLoader(delimiter rune) *loader.Loader {
	ensureConfig()
	opts := []loader.Option{loader.WithLogger(log)}
	if delimiter != 0 {
		opts = append(opts, loader.WithDelimiter(delimiter))
	}
	return loader.New(time.Duration(cfg.HTTPTimeoutSec)*time.Second, opts...)
}

func openCatalog() (*catalog.Catalog, error) {
	ensureConfig()
	dir := cfg.CatalogDir
	if dir == "" {
		dir = "."
	}
	return catalog.Load(dir)
}

// resolveSource maps a catalog name to its source; other arguments are
// treated as a path or URL.
func resolveSource(arg string) string {
	c, err := openCatalog()
	if err != nil {
		log.WithError(err).Debug("catalog unavailable, treating argument as a path")
		return arg
	}
	return c.Resolve(arg)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s (use ','|';'|'|'|'tab')", s)
	}
}
