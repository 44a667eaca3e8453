package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "baperang",
	Short: "밥이랑 - 학교 급식 잔반/태깅 대시보드 백엔드",
	Long: `baperang Unified CLI

학생 명단, 식단, NFC 급식 태깅, 잔반 측정을 모아
일/주/월 잔반률과 급식 완료율을 제공합니다.

Usage:
  go run ./cmd/baperang [command]

Examples:
  go run ./cmd/baperang api
  go run ./cmd/baperang migrate
  go run ./cmd/baperang import-roster students.xlsx
  go run ./cmd/baperang scheduler start
  go run ./cmd/baperang test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}
