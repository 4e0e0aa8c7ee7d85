package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Vigil - ML 모델 드리프트 감시 시스템",
	Long: `Vigil Unified CLI

확신에 찬 채로 조용히 망가지는 모델을 감시한다.
주차별 배치를 베이스라인과 비교해 PSI / KS / Wasserstein 으로
분포 변화를 수치화하고, silent degradation 신호를 조기에 띄운다.

Usage:
  go run ./cmd/vigil [command]

Examples:
  go run ./cmd/vigil api
  go run ./cmd/vigil baseline --week 1
  go run ./cmd/vigil analyze --week 4
  go run ./cmd/vigil status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
