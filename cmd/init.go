package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/restock/internal/config"
)

func init() {
	initCmd.Flags().String("user", "", "user id to record in the config")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolving home directory: %w", err)
			}
			path = filepath.Join(home, ".config", "restock", "config.yaml")
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Printf("config already exists at %s\n", path)
		} else {
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
		}

		if user, _ := cmd.Flags().GetString("user"); user != "" {
			if err := config.SaveUserID(path, user); err != nil {
				return err
			}
			fmt.Printf("set user_id to %s\n", user)
		}
		return nil
	},
}
