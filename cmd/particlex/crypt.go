package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"particlex/pkg/crypt"
)

func newEncryptCmd(a *app) *cobra.Command {
	var passphrase string
	cmd := &cobra.Command{
		Use:   "encrypt [file]",
		Short: "Seal post content behind a passphrase",
		Long: `Encrypt content from file (or stdin) and print, as YAML, the ciphertext
and the SHA-256 digest a reader's passphrase is checked against.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			ct, sum, err := crypt.Encrypt(content, passphrase)
			if err != nil {
				return err
			}
			a.logger.Debug("content sealed", "bytes", len(content))
			return writeReport(cmd.OutOrStdout(), "-", map[string]string{
				"encrypted": ct,
				"shasum":    sum,
			})
		},
	}
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase readers must enter")
	_ = cmd.MarkFlagRequired("passphrase")
	return cmd
}

func newDecryptCmd(a *app) *cobra.Command {
	var passphrase, shasum string
	cmd := &cobra.Command{
		Use:   "decrypt [file]",
		Short: "Open sealed post content",
		Long: `Decrypt ciphertext from file (or stdin) and print the content. The content
is only printed when its SHA-256 digest matches --shasum.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			r := crypt.Decrypt(strings.TrimSpace(content), passphrase, shasum,
				crypt.Options{Sanitize: a.cfg.Crypt.Sanitize})
			if !r.Valid {
				return fmt.Errorf("wrong passphrase or corrupted content")
			}
			_, err = io.WriteString(cmd.OutOrStdout(), r.Plaintext)
			return err
		},
	}
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase")
	cmd.Flags().StringVar(&shasum, "shasum", "", "expected SHA-256 hex digest of the content")
	cmd.Flags().Bool("sanitize", false, "sanitize the decrypted HTML")
	_ = cmd.MarkFlagRequired("passphrase")
	_ = cmd.MarkFlagRequired("shasum")
	a.bindFlags(cmd, bind{"crypt.sanitize": "sanitize"})
	return cmd
}
