// Tenders CLI — инструмент командной строки для запуска синхронизации
// и просмотра индекса тендеров через HTTP API.
//
// Использование:
//
//	tenders-cli [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	sync     Запуск синхронизации и журнал
//	tenders  Сводка и последние тендеры
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tenders/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("TENDERS_API"); v != "" {
		defaultURL = v
	}

	rootCmd := &cobra.Command{
		Use:           "tenders-cli",
		Short:         "Tenders CLI — sync and inspect the tender index",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput, os.Stdout, os.Stderr) }

	rootCmd.AddCommand(
		cli.NewSyncCmd(clientFn, outputFn),
		cli.NewTendersCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
