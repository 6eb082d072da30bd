package main

import (
	"github.com/spf13/cobra"

	"github.com/wasmlet/wasmlet/internal/guard"
)

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running development server",
		Long: `Stop the development server recorded in the instance file.

A stale record from a dead server is cleaned up silently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stopped, err := guard.New("").StopRunning()
			if err != nil {
				return err
			}
			if stopped {
				success("Server stopped")
			} else {
				info("No server running")
			}
			return nil
		},
	}
}
