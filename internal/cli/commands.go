package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/commands"
	"github.com/Qfresquin/cmk2nob/internal/config"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
	"github.com/Qfresquin/cmk2nob/internal/events"
	"github.com/Qfresquin/cmk2nob/internal/model"
	"github.com/Qfresquin/cmk2nob/internal/telemetry"
)

var astSuffix = ".ast.json"

// jsonFileLoader implements evaluator.FileLoader by reading a pre-parsed
// ast.File as JSON from path+astSuffix; the lexer/parser that produces
// these sidecar files runs outside this module and is the contract
// ast.File documents.
func jsonFileLoader(path string) (*ast.File, error) {
	data, err := os.ReadFile(path + astSuffix)
	if err != nil {
		return nil, fmt.Errorf("reading parsed AST for %s: %w", path, err)
	}
	var file ast.File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding parsed AST for %s: %w", path, err)
	}
	return &file, nil
}

func newEvaluateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "evaluate [root-listsfile]",
		Short: "Evaluate a parsed CMake script tree into a build-event stream",
		Long:  `Loads the root CMakeLists.txt's parsed AST, runs the evaluator, and writes the resulting event stream as newline-delimited JSON.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := filepath.Join(projectRoot, "CMakeLists.txt")
			if len(args) == 1 {
				root = args[0]
			}
			return runEvaluate(root, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write events to this file instead of stdout")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [root-listsfile]",
		Short: "Evaluate and check the resulting build model for dependency errors",
		Long:  `Runs the evaluator and reports unresolved target dependencies, dependency cycles, and recorded diagnostics without emitting an event stream.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := filepath.Join(projectRoot, "CMakeLists.txt")
			if len(args) == 1 {
				root = args[0]
			}
			return runValidate(root)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cmk2nob v%s\n", version)
		},
	}
}

func loadOptions() (config.Options, error) {
	path := resolvedConfigPath()
	if _, err := os.Stat(path); err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

func buildContext(rootListsFile string) (*evaluator.Context, events.Sink, error) {
	opts, err := loadOptions()
	if err != nil {
		return nil, nil, err
	}
	if opts.LogLevel == "" {
		opts.LogLevel = verbosity
	}

	m := model.New()
	m.Platform = opts.ApplyPlatform()
	opts.SeedCache(m)
	if opts.RealProbes {
		os.Setenv("CMK2NOB_REAL_PROBES", "1")
	}

	sourceDir := filepath.Dir(rootListsFile)
	binaryDir := opts.BinaryDir
	if binaryDir == "" {
		binaryDir = filepath.Join(sourceDir, "build")
	}

	sink := events.NewRecorder()
	ctx := evaluator.NewContext(m, sink, sourceDir, binaryDir)
	commands.Install(ctx, jsonFileLoader)
	return ctx, sink, nil
}

func runEvaluate(rootListsFile, out string) error {
	runID := telemetry.NewRunID()
	log := telemetry.New(verbosity, "").WithComponent("cli")
	log.Info("starting evaluation", telemetry.F("run_id", runID), telemetry.F("root", rootListsFile))

	ctx, sink, err := buildContext(rootListsFile)
	if err != nil {
		printError(err.Error())
		return err
	}

	file, err := jsonFileLoader(rootListsFile)
	if err != nil {
		printError(err.Error())
		return err
	}
	ctx.CurrentListFile = rootListsFile

	if err := ctx.EvalBody(file.Nodes); err != nil {
		printError(err.Error())
		return err
	}

	rec := sink.(*events.Recorder)
	for _, d := range rec.Diagnostics {
		log.Diagnostic(d)
	}

	writer := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer f.Close()
		writer = f
	}
	enc := json.NewEncoder(writer)
	for _, e := range rec.Events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}

	if rec.HasErrors() {
		return fmt.Errorf("evaluation reported %d error diagnostic(s)", countSeverity(rec.Diagnostics))
	}
	printInfo(fmt.Sprintf("evaluated %d event(s) from %s", len(rec.Events), rootListsFile))
	return nil
}

func runValidate(rootListsFile string) error {
	runID := telemetry.NewRunID()
	log := telemetry.New(verbosity, "").WithComponent("cli")
	log.Info("starting validation", telemetry.F("run_id", runID), telemetry.F("root", rootListsFile))

	ctx, sink, err := buildContext(rootListsFile)
	if err != nil {
		printError(err.Error())
		return err
	}

	file, err := jsonFileLoader(rootListsFile)
	if err != nil {
		printError(err.Error())
		return err
	}
	ctx.CurrentListFile = rootListsFile

	if err := ctx.EvalBody(file.Nodes); err != nil {
		printError(err.Error())
		return err
	}

	rec := sink.(*events.Recorder)
	for _, d := range rec.Diagnostics {
		log.Diagnostic(d)
	}

	if err := ctx.Model.ValidateDependencies(); err != nil {
		printError(err.Error())
		return err
	}
	if ctx.Model.TopologicalSort() == nil {
		err := fmt.Errorf("dependency cycle detected among declared targets")
		printError(err.Error())
		return err
	}
	if rec.HasErrors() {
		return fmt.Errorf("evaluation reported %d error diagnostic(s)", countSeverity(rec.Diagnostics))
	}
	printInfo("configuration is valid")
	return nil
}

func countSeverity(diags []events.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == events.SeverityError || d.Severity == events.SeverityFatal {
			n++
		}
	}
	return n
}
