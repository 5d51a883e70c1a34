package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	chainio "github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
)

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the disputer keystore",
	}
	cmd.AddCommand(keyImportCmd())
	cmd.AddCommand(keyListCmd())
	return cmd
}

func keyImportCmd() *cobra.Command {
	var (
		keyFile  string
		password string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Encrypt a hex private key into the keystore",
		Long:  "Reads the hex private key from --private-key-file, or from stdin when the flag is empty. The passphrase defaults to disputer.password.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConf(cmd)
			if err != nil {
				return err
			}
			var src io.Reader = cmd.InOrStdin()
			if keyFile != "" {
				f, err := os.Open(keyFile)
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}
			line, err := bufio.NewReader(src).ReadString('\n')
			if err != nil && err != io.EOF {
				return fmt.Errorf("failed to read private key: %w", err)
			}
			if password == "" {
				password = c.Disputer.Password
			}
			if password == "" {
				return fmt.Errorf("a passphrase is required, set --password or disputer.password")
			}

			account, err := chainio.OpenKeystore(c.Disputer.KeystoreDir).ImportKey(strings.TrimSpace(line), password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s into %s\n", account.Address.Hex(), c.Disputer.KeystoreDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyFile, "private-key-file", "", "File holding the hex private key")
	cmd.Flags().StringVar(&password, "password", "", "Keystore passphrase, defaults to disputer.password")
	return cmd
}

type keyListOutput struct {
	Keystore string   `json:"keystore" yaml:"keystore"`
	Accounts []string `json:"accounts" yaml:"accounts"`
}

func keyListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the keystore accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConf(cmd)
			if err != nil {
				return err
			}
			out := keyListOutput{Keystore: c.Disputer.KeystoreDir, Accounts: []string{}}
			for _, a := range chainio.OpenKeystore(c.Disputer.KeystoreDir).ListAccounts() {
				out.Accounts = append(out.Accounts, a.Address.Hex())
			}
			return render(cmd.OutOrStdout(), output, out, func(w io.Writer) {
				for _, a := range out.Accounts {
					fmt.Fprintln(w, a)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}
