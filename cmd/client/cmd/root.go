package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagServer   string
	flagUserId   string
	flagUsername string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roomcast",
	Short: "Watch videos together: shared playback, chat and group voice",
	Long: `Roomcast is a command-line client for roomcast rooms. Everyone in a
room sees the same video at the same position; play, pause, seek and
url changes from any participant propagate to all others. Rooms also
carry text chat and full-mesh peer-to-peer voice.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "http://localhost:8080", "Server base url")
	rootCmd.PersistentFlags().StringVar(&flagUserId, "user-id", "", "Stable user id (generated when empty)")
	rootCmd.PersistentFlags().StringVarP(&flagUsername, "username", "u", "", "Display name")
}
