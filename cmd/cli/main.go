package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "podsight",
	Short: "Podsight CLI - podcast intelligence reports",
	Long: `Podsight CLI is a command-line tool for the podcast report pipeline.
It lists generated reports and triggers manual regeneration against a
running podsight server.`,
}

func init() {
	viper.SetConfigName(".podsight")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.SetDefault("server", "http://localhost:8080")
	viper.ReadInConfig()

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
