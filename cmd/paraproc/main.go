package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime/debug"

	"github.com/paraproc/paraproc/cmdline"
	"github.com/paraproc/paraproc/internal/log"
	"github.com/paraproc/paraproc/pool"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the optional paraproc.yaml file with defaults for the CLI.
type Config struct {
	Jobs    int    `yaml:"jobs"`    // pool size, 0 means derive from CPUs
	Verbose int    `yaml:"verbose"` // 0 quiet, 1 lifecycle, 2 echo output
	Pattern string `yaml:"pattern"` // overrides the default error pattern
	Shell   bool   `yaml:"shell"`   // run command lines through the shell
}

var (
	config     Config
	configPath string // actual config file used (if loaded)

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
	flagQuiet          bool   // value of --quiet flag
	flagJobs           int    // value of --jobs flag
	flagShell          bool   // value of --shell flag
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "config file to load - default is paraproc.yaml in current directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose output: echo everything the jobs print")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress job lifecycle traces")

	runCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "max concurrently running jobs (default: 3/4 of CPUs)")
	runCmd.Flags().BoolVar(&flagShell, "shell", false, "run each command line through the shell")

	// never print messages
	rootCmd.SilenceErrors = true

	// parse config, setup logging
	rootCmd.PersistentPreRunE = initParaproc

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("paraproc failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "paraproc",
	Short:        "Run command lines in parallel across a bounded pool of workers",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run [command]...",
	Short: "run the given command lines (or one per stdin line) and report the verdict",
	RunE:  doRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provides the version of paraproc",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("paraproc: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config:   %s\n", configPath)
		}
		fmt.Printf("paraproc: %s\n", info.Main.Version)
		fmt.Printf("go:       %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:   %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:     %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:    %s\n", s.Value)
			}
		}
	},
}

func doRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	lines := args
	if len(lines) == 0 {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading commands from stdin: %w", err)
		}
	}
	if len(lines) == 0 {
		return fmt.Errorf("no commands given")
	}

	cfg := pool.Config{
		Size:    config.Jobs,
		Verbose: config.Verbose,
	}
	if config.Pattern != "" {
		pattern, err := regexp.Compile(config.Pattern)
		if err != nil {
			return fmt.Errorf("compiling error pattern: %w", err)
		}
		cfg.ErrorPattern = pattern
	}

	p := pool.New(cfg)
	for _, line := range lines {
		c := cmdline.Text(line)
		if config.Shell {
			c = c.Shell()
		}
		p.Run(c)
	}

	ctx = log.ContextAttrs(ctx,
		slog.Int("jobs", len(lines)),
		slog.Int("size", p.Size()),
	)
	slog.DebugContext(ctx, "batch starting")

	batch, err := p.Wait(ctx)
	if err != nil {
		return err
	}
	if !p.AllSuccessful(batch.Jobs) {
		return fmt.Errorf("%d jobs finished, not all successfully", len(batch.Jobs))
	}
	return nil
}

func initParaproc(cmd *cobra.Command, _ []string) error {
	if envConfig, ok := os.LookupEnv("PARAPROCCONFIG"); ok {
		configPath = envConfig
	} else if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else if exists(filepath.Join(".", "paraproc.yaml")) {
		configPath = filepath.Join(".", "paraproc.yaml")
	}

	config = Config{Verbose: 1}
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		if err := yaml.NewDecoder(f).Decode(&config); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	// flags have precedence over the config file
	if flagVerbose {
		config.Verbose = 2
	}
	if flagQuiet {
		config.Verbose = 0
	}
	if flagJobs > 0 {
		config.Jobs = flagJobs
	}
	if flagShell {
		config.Shell = true
	}

	logger := log.New(flagVerbose)
	slog.SetDefault(logger)

	slog.Debug("paraproc run", "configPath", configPath, "config", config)
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
