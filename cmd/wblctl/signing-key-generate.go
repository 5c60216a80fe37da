package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildbranch/wbl-catalog/pkg/config"
)

// signingKeyGenerateCmd represents the signing-key generate command
var signingKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an access token signing key",
	Long: `
Generate an access token signing key

Use this command to generate a new random Base64-encoded key. Once generated,
place it in the environment of the server as WBL_SIGNING_KEY or in wbl.yml as
signing_key. Changing the key invalidates every token issued with the old one.

Example:

$ export WBL_SIGNING_KEY="$(wblctl signing-key generate)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		size, _ := cmd.Flags().GetInt("bytes")

		key, err := generateSigningKey(size)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%s", key)
	},
}

func init() {
	signingKeyCmd.AddCommand(signingKeyGenerateCmd)
	signingKeyGenerateCmd.Flags().Int("bytes", 32, "number of random bytes")
}

func generateSigningKey(size int) (string, error) {
	if size < config.MinSigningKeyLength {
		return "", fmt.Errorf("a signing key needs at least %d random bytes", config.MinSigningKeyLength)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.StdEncoding.Strict().EncodeToString(buf), nil
}
