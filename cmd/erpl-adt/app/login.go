package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/erpl/erpl-adt/pkg/adt/client"
	"github.com/erpl/erpl-adt/pkg/creds"
	"github.com/erpl/erpl-adt/pkg/logger"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store connection credentials in " + creds.DefaultPath,
		Long: `Store the SAP connection profile in ` + creds.DefaultPath + ` (mode 600)
in the working directory. With connection flags the profile is taken from
them; on a terminal without flags an interactive wizard prompts for the
values. The connection is verified against the ADT discovery service.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := loginProfile()
			if err != nil {
				return err
			}
			if err := creds.Save(creds.DefaultPath, profile); err != nil {
				return err
			}
			if err := verifyLogin(cmd.Context(), profile); err != nil {
				fmt.Fprintln(os.Stderr, styled(warnStyle,
					"Credentials saved, but the connection check failed: "+err.Error()))
				return nil
			}
			fmt.Println(styled(okStyle, "Logged in: ")+
				fmt.Sprintf("%s@%s:%d (client %s)", profile.User, profile.Host, profile.Port, profile.Client))
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored credentials file",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !creds.Exists(creds.DefaultPath) {
				fmt.Println("No credentials stored.")
				return nil
			}
			if err := creds.Remove(creds.DefaultPath); err != nil {
				return err
			}
			fmt.Println("Credentials removed.")
			return nil
		},
	}
}

// loginProfile builds the profile from flags, or interactively when no
// host flag is given and stdin is a terminal.
func loginProfile() (*creds.Credentials, error) {
	if flagHost == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		return loginWizard()
	}
	conn, err := resolveConnection()
	if err != nil {
		return nil, err
	}
	return &creds.Credentials{
		Host:     conn.Host,
		Port:     conn.Port,
		User:     conn.User,
		Password: conn.Password,
		Client:   conn.Client,
		UseHTTPS: conn.HTTPS,
	}, nil
}

func loginWizard() (*creds.Credentials, error) {
	reader := bufio.NewReader(os.Stdin)
	prompt := func(label, fallback string) (string, error) {
		if fallback != "" {
			fmt.Printf("%s [%s]: ", label, fallback)
		} else {
			fmt.Printf("%s: ", label)
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return fallback, nil
		}
		return line, nil
	}

	host, err := prompt("SAP host", "")
	if err != nil {
		return nil, err
	}
	portStr, err := prompt("Port", "44300")
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	sapClient, err := prompt("Client", "100")
	if err != nil {
		return nil, err
	}
	user, err := prompt("User", "")
	if err != nil {
		return nil, err
	}
	httpsStr, err := prompt("Use HTTPS (y/n)", "y")
	if err != nil {
		return nil, err
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}

	return &creds.Credentials{
		Host:     host,
		Port:     port,
		User:     user,
		Password: string(password),
		Client:   sapClient,
		UseHTTPS: strings.HasPrefix(strings.ToLower(httpsStr), "y"),
	}, nil
}

func verifyLogin(ctx context.Context, profile *creds.Credentials) error {
	sess, err := sessionFromCredentials(profile)
	if err != nil {
		return err
	}
	_, err = client.New(sess).Discover(ctx)
	if err == nil {
		logger.Debugf("discovery check passed for %s", profile.Host)
	}
	return err
}
