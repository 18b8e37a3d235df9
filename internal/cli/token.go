package cli

import (
	"fmt"
	"os"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/daybook-edu/daybook/internal/middleware"
)

var tokenGenerateKey bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin token for the generation endpoints",
	Long: `Token mints a short-lived fernet admin token from DAYBOOK_ADMIN_KEY.
Pass it as "Authorization: Bearer <token>" to the admin-gated endpoints.
With --generate-key, prints a fresh key instead (set it as DAYBOOK_ADMIN_KEY
on the server and wherever tokens are minted).`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().BoolVar(&tokenGenerateKey, "generate-key", false, "print a new admin key instead of a token")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(_ *cobra.Command, _ []string) error {
	if tokenGenerateKey {
		k := new(fernet.Key)
		if err := k.Generate(); err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		fmt.Println(k.Encode())
		return nil
	}

	_ = godotenv.Load()
	keyStr := os.Getenv("DAYBOOK_ADMIN_KEY")
	verifier, err := middleware.NewAdminVerifier(keyStr, 0)
	if err != nil {
		return err
	}

	token, err := verifier.MintToken()
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
