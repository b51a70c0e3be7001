package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskhub/deskhub/internal/secrets"
)

func init() {
	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new encryption key for DESKHUB_ENCRYPTION_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secrets.GenerateKey()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, key)
			return nil
		},
	}
	rootCmd.AddCommand(keygenCmd)
}
