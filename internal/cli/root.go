// Package cli wires the evaluator pipeline into a command-line frontend:
// load options, load a pre-parsed AST, run the evaluator, emit the
// resulting event stream. Grounded on pkg/cli/root.go's cobra+viper root
// command, adapted from the watch daemon's subcommand tree to an
// evaluate/validate/version tree with no watch loop.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	projectRoot string
	verbosity   string
	version     string
)

var rootCmd = &cobra.Command{
	Use:   "cmk2nob",
	Short: "Evaluates CMakeLists.txt scripts into a build-event stream",
	Long: `cmk2nob evaluates a parsed CMake script tree and emits a
build-model event stream: target declarations, property propagation,
install rules, and test registrations, ready for a codegen backend to
consume.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("cmk2nob v%s\n", version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the CLI with the given version string.
func Execute(v string) error {
	version = v
	initializeRootCommand()
	return rootCmd.Execute()
}

func initializeRootCommand() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: cmk2nob.config.json)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root directory")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")

	rootCmd.Flags().Bool("version", false, "print version information and quit")

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(projectRoot)
		viper.SetConfigName("cmk2nob.config")
		viper.SetConfigType("json")
	}

	viper.SetEnvPrefix("CMK2NOB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbosity == "debug" {
		fmt.Println("using config file:", viper.ConfigFileUsed())
	}
}

func resolvedConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(projectRoot, "cmk2nob.config.json")
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("[cmk2nob]"), message)
}

func printInfo(message string) {
	fmt.Printf("%s %s\n", color.CyanString("[cmk2nob]"), message)
}
