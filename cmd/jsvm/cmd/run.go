package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/jsvm/jsvm/pkg/engine"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

var (
	runEval    string
	dumpAST    bool
	trace      bool
	strict     bool
	configPath string
)

// runConfig is the shape of the YAML file --config points at: the
// subset of engine.Option this command can set ahead of time, for
// callers who'd rather check in a jsvm.yaml than repeat flags.
type runConfig struct {
	Strict     bool `yaml:"strict"`
	StackLimit int  `yaml:"stackLimit"`
}

func loadRunConfig(path string) (runConfig, error) {
	var cfg runConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run an ECMAScript file or expression",
	Long: `Execute an ECMAScript program from a file or inline expression.

Examples:
  jsvm run script.js
  jsvm run -e "console.log('hello')"
  jsvm run --dump-ast script.js
  jsvm run --trace script.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runEval, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "dump the parsed AST before running")
	runCmd.Flags().BoolVar(&trace, "trace", false, "trace lexer tokens and VM instructions to stderr")
	runCmd.Flags().BoolVar(&strict, "strict", false, "parse and run as if the source began with \"use strict\"")
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML file setting engine options (strict, stackLimit)")
}

func runScript(_ *cobra.Command, args []string) error {
	var input, filename string
	var err error

	if runEval != "" {
		input, filename = runEval, "<eval>"
	} else {
		input, filename, err = readSource(false, args)
		if err != nil {
			return err
		}
	}

	opts := []engine.Option{}
	if configPath != "" {
		cfg, cerr := loadRunConfig(configPath)
		if cerr != nil {
			return cerr
		}
		if cfg.Strict {
			opts = append(opts, engine.WithStrict(true))
		}
		if cfg.StackLimit > 0 {
			opts = append(opts, engine.WithStackLimit(cfg.StackLimit))
		}
	}
	if strict {
		opts = append(opts, engine.WithStrict(true))
	}
	if trace {
		opts = append(opts, engine.WithTracing(os.Stderr))
	}
	e := engine.New(opts...)

	script, err := e.Parse(input, filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fmt.Errorf("parsing failed")
	}

	if dumpAST {
		pretty.Println(script.Program())
	}

	v, err := script.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", engine.ErrorName(err), err)
		return fmt.Errorf("execution failed")
	}
	e.DrainJobs()

	if v != nil {
		if s, serr := e.ToString(v); serr == nil {
			fmt.Println(s)
		} else {
			fmt.Println(v)
		}
	}
	return nil
}
