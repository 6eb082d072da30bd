package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wasmlet/wasmlet/internal/config"
	"github.com/wasmlet/wasmlet/internal/errors"
)

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default wasmlet.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := filepath.Join(wd, config.ConfigFileName)
			if _, err := os.Stat(path); err == nil {
				return errors.New("E104").
					WithDetailf("%s already exists.", path).
					WithSuggestion("Edit the existing file instead.")
			}

			cfg := config.Default()
			cfg.Name = name
			if cfg.Name == "" {
				cfg.Name = filepath.Base(wd)
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success("Created %s", config.ConfigFileName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")
	return cmd
}
