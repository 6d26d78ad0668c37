package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vk/millgrid/internal/app"
	"github.com/vk/millgrid/internal/config"
	"github.com/vk/millgrid/internal/job"
	"github.com/vk/millgrid/internal/jobapi"
	"github.com/vk/millgrid/internal/jobhcl"
	"github.com/vk/millgrid/internal/pipeline"
	"github.com/zclconf/go-cty/cty"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// options holds every flag value of one command tree.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	vars       []string

	delivery   string
	outputRoot string
	kernel     string
	parallel   int

	compact bool
	outPath string

	env    config.LookupFunc
	stdout io.Writer
	stderr io.Writer
}

// Execute runs the millgrid command line with args. Command output goes to
// stdout, logs to stderr. Usage and configuration problems are reported as
// an *ExitError with code 2.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return newRootCommand(stdout, stderr, os.LookupEnv).execute(ctx, args)
}

type rootCommand struct {
	cmd *cobra.Command
}

func (r *rootCommand) execute(ctx context.Context, args []string) error {
	r.cmd.SetArgs(args)
	return r.cmd.ExecuteContext(ctx)
}

func newRootCommand(stdout, stderr io.Writer, env config.LookupFunc) *rootCommand {
	o := &options{env: env, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "millgrid",
		Short: "Run machining jobs against a geometry kernel",
		Long: `millgrid turns machining job documents into solid models.

A job names a stock blank, an ordered chain of features cut from it and the
artifacts to write. Every run opens its own kernel session, exports the
finished part and the removed material as STEP and STL, and releases every
kernel handle it created whether the run succeeds or not.

Job files are read by extension:
  .json          the wire document
  .hcl           HCL, with variables and functions
  .case, .txt    key=value case files`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "Path to a YAML configuration file.")
	pf.StringVar(&o.logLevel, "log-level", "", "Logging level: debug, info, warn or error.")
	pf.StringVar(&o.logFormat, "log-format", "", "Log output format: text or json.")
	pf.StringArrayVar(&o.vars, "var", nil, "Set an HCL job variable, name=value. Repeatable.")

	root.AddCommand(
		o.runCmd(),
		o.validateCmd(),
		o.convertCmd(),
		o.newCmd(),
		o.fetchCmd(),
		o.configCmd(),
	)
	return &rootCommand{cmd: root}
}

// args wraps a positional argument check so a mismatch exits with code 2.
func args(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := check(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func addPipelineFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVar(&o.delivery, "delivery", "", "Artifact delivery: persistent or ephemeral. Required unless configured.")
	fs.StringVar(&o.outputRoot, "output-root", "", "Directory run directories are created under.")
	fs.StringVar(&o.kernel, "kernel", "", "Kernel backend: memory or native.")
	fs.IntVar(&o.parallel, "parallel", 0, "Maximum number of jobs run at once.")
}

// loadConfig layers changed flags over the environment, the config file and
// the defaults, in that order of precedence.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(o.configPath, o.env)
	if err != nil {
		return nil, usageError(err)
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("log-level", &cfg.Log.Level, o.logLevel)
	set("log-format", &cfg.Log.Format, o.logFormat)
	set("delivery", &cfg.Delivery, o.delivery)
	set("output-root", &cfg.OutputRoot, o.outputRoot)
	set("kernel", &cfg.Kernel.Backend, o.kernel)
	if flags.Changed("parallel") {
		cfg.Parallel = o.parallel
	}
	return cfg, nil
}

// newApp loads the configuration and wires the application. Configuration
// errors exit with code 2.
func (o *options) newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), o.stderr, cfg)
	if err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			return nil, usageError(err)
		}
		return nil, err
	}
	return a, nil
}

func (o *options) parseVars() (map[string]cty.Value, error) {
	vars, err := jobhcl.ParseVars(o.vars)
	if err != nil {
		return nil, usageError(err)
	}
	return vars, nil
}

func (o *options) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run JOB|DIR...",
		Short: "Run one or more jobs and print their artifacts",
		Long: `Run loads every job file, then runs the jobs concurrently, each in its own
kernel session. Directories are searched for .json, .hcl and .case files. A
failing job does not stop the others. Nothing runs if any file cannot be
loaded.`,
		Args: args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, paths []string) error {
			vars, err := o.parseVars()
			if err != nil {
				return err
			}
			paths, err = app.ExpandPaths(paths)
			if err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			results, runErr := a.Run(cmd.Context(), paths, vars)
			if results == nil && runErr != nil {
				return runErr
			}
			failed := printResults(o.stdout, paths, results)
			if failed > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d of %d jobs failed", failed, len(results))}
			}
			return nil
		},
	}
	addPipelineFlags(cmd.Flags(), o)
	return cmd
}

func printResults(w io.Writer, paths []string, results []pipeline.BatchResult) int {
	failed := 0
	for i, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "❌ %s: %v\n", paths[i], r.Err)
			continue
		}
		m := r.Manifest
		fmt.Fprintf(w, "✅ %s: run %s (%s)\n", paths[i], m.RunID, m.Delivery)
		for _, art := range m.Artifacts() {
			fmt.Fprintf(w, "   %-20s %s\n", art.Name, art.URL)
		}
	}
	return failed
}

func (o *options) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate JOB",
		Short: "Check a job and list every problem found",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			j, err := o.loadJob(cmd, a[0])
			if err != nil {
				return err
			}
			resp := jobapi.NewService(nil).Validate(j)
			if resp.OK {
				fmt.Fprintf(o.stdout, "✅ %s is valid\n", a[0])
				return nil
			}
			for _, d := range resp.Errors {
				fmt.Fprintf(o.stdout, "%s\t%s\t%s\n", d.Code, d.Path, d.Message)
			}
			return &ExitError{Code: 1, Message: fmt.Sprintf("%s: %d problems found", a[0], len(resp.Errors))}
		},
	}
}

func (o *options) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert JOB",
		Short: "Print a job of any format as a canonical JSON document",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			j, err := o.loadJob(cmd, a[0])
			if err != nil {
				return err
			}
			svc := jobapi.NewService(nil)
			if o.outPath != "" {
				resp := svc.SaveJSON(cmd.Context(), j, o.outPath, job.SaveOptions{Pretty: !o.compact, EnsureDir: true})
				return diagnosticsError(resp)
			}
			resp := svc.ToJSON(j, !o.compact)
			if err := diagnosticsError(resp); err != nil {
				return err
			}
			fmt.Fprintln(o.stdout, resp.JSON)
			return nil
		},
	}
	cmd.Flags().BoolVar(&o.compact, "compact", false, "Write compact JSON instead of indented JSON.")
	cmd.Flags().StringVarP(&o.outPath, "out", "o", "", "Write the document to a file instead of stdout.")
	return cmd
}

func (o *options) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Print an empty job draft with the configured output names",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			n := cfg.Defaults
			svc := jobapi.NewService(nil)
			draft := svc.Create(job.Defaults{
				Stock: &job.Stock{Type: "BOX", Axis: job.WorldAxis()},
				Output: &job.Output{
					LinearDeflection:  0.1,
					AngularDeflection: 0.5,
					Dir:               n.Dir,
					StepFile:          n.StepFile,
					StlFile:           n.StlFile,
					DeltaStepFile:     n.DeltaStepFile,
					DeltaStlFile:      n.DeltaStlFile,
				},
			})
			resp := svc.ToJSON(draft.Job, true)
			if err := diagnosticsError(resp); err != nil {
				return err
			}
			fmt.Fprintln(o.stdout, resp.JSON)
			return nil
		},
	}
}

func (o *options) fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch RUN_ID FILE",
		Short: "Write one artifact of a finished run to stdout or a file",
		Long: `Fetch reads one artifact of a finished run. With ephemeral delivery the
artifact is deleted once it has been read, and the run directory is removed
with the last one.`,
		Args: args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			ap, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			defer ap.Close()

			data, err := ap.Service().Fetch(ap.Context(cmd.Context()), a[0], a[1])
			if err != nil {
				return err
			}
			if o.outPath != "" {
				if err := os.WriteFile(o.outPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", o.outPath, err)
				}
				return nil
			}
			_, err = o.stdout.Write(data)
			return err
		},
	}
	addPipelineFlags(cmd.Flags(), o)
	cmd.Flags().StringVarP(&o.outPath, "out", "o", "", "Write the artifact to a file instead of stdout.")
	return cmd
}

func (o *options) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = o.stdout.Write(data)
			return err
		},
	}
	addPipelineFlags(cmd.Flags(), o)
	return cmd
}

// loadJob reads a job file of any supported format. Load failures are the
// caller's to fix and exit with code 1.
func (o *options) loadJob(cmd *cobra.Command, path string) (*job.Job, error) {
	vars, err := o.parseVars()
	if err != nil {
		return nil, err
	}
	j, err := app.LoadJob(cmd.Context(), path, vars)
	if err != nil {
		return nil, &ExitError{Code: 1, Message: err.Error()}
	}
	return j, nil
}

func diagnosticsError(resp jobapi.Response) error {
	if resp.OK {
		return nil
	}
	msgs := make([]string, 0, len(resp.Errors))
	for _, d := range resp.Errors {
		msgs = append(msgs, d.String())
	}
	return &ExitError{Code: 1, Message: strings.Join(msgs, "\n")}
}
