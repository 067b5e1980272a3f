package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/credvault/internal/credstore"
)

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "inspect and manage stored provider credentials",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list stored providers and their expiry status",
				Action: providersListAction,
			},
			{
				Name:      "show",
				Usage:     "show metadata for one provider (never prints secrets)",
				ArgsUsage: "<provider>",
				Action:    providersShowAction,
			},
			{
				Name:      "remove",
				Usage:     "remove a provider's stored credentials",
				ArgsUsage: "<provider>",
				Action:    providersRemoveAction,
			},
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "store and refresh provider tokens",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "store or replace a provider's token record",
				ArgsUsage: "<provider>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "access-token",
						Usage: "access token (prompted when omitted)",
					},
					&cli.StringFlag{
						Name:  "refresh-token",
						Usage: "refresh token (prompted when omitted; may be empty)",
					},
					&cli.StringFlag{
						Name:  "token-type",
						Usage: "token type",
						Value: "Bearer",
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "granted scopes",
					},
					&cli.DurationFlag{
						Name:  "expires-in",
						Usage: "lifetime of the access token from now",
						Value: time.Hour,
					},
				},
				Action: tokenSetAction,
			},
			{
				Name:      "refresh",
				Usage:     "force a refresh of a provider's access token",
				ArgsUsage: "<provider>",
				Action:    tokenRefreshAction,
			},
		},
	}
}

// providerArg extracts the single required provider id argument.
func providerArg(cmd *cli.Command) (string, error) {
	provider := cmd.Args().First()
	if provider == "" {
		return "", errors.New("missing required argument: <provider>")
	}
	return provider, nil
}

func providersListAction(ctx context.Context, cmd *cli.Command) error {
	application, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	store := application.Store()

	providers := store.Providers()
	if len(providers) == 0 {
		fmt.Println("no stored credentials")
		return nil
	}

	for _, provider := range providers {
		status := "valid"
		if store.IsExpired(provider) {
			status = "expired"
		}
		fmt.Printf("%s\t%s\n", provider, status)
	}
	return nil
}

func providersShowAction(ctx context.Context, cmd *cli.Command) error {
	provider, err := providerArg(cmd)
	if err != nil {
		return err
	}

	application, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	store := application.Store()

	rec, ok := store.Get(provider)
	if !ok {
		return fmt.Errorf("no stored credentials for provider %s", provider)
	}

	status := "valid"
	if store.IsExpired(provider) {
		status = "expired"
	}

	fmt.Printf("provider:      %s\n", provider)
	fmt.Printf("token type:    %s\n", rec.TokenType)
	fmt.Printf("scope:         %s\n", rec.Scope)
	fmt.Printf("expires at:    %s\n", rec.Expiry().Format(time.RFC3339))
	fmt.Printf("status:        %s\n", status)
	fmt.Printf("refresh token: %v\n", rec.RefreshToken != "")
	return nil
}

func providersRemoveAction(ctx context.Context, cmd *cli.Command) error {
	provider, err := providerArg(cmd)
	if err != nil {
		return err
	}

	application, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	if err := application.Store().Remove(ctx, provider); err != nil {
		return fmt.Errorf("removing provider %s: %w", provider, err)
	}

	fmt.Printf("removed credentials for %s\n", provider)
	return nil
}

func tokenSetAction(ctx context.Context, cmd *cli.Command) error {
	provider, err := providerArg(cmd)
	if err != nil {
		return err
	}

	application, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	accessToken := cmd.String("access-token")
	if accessToken == "" {
		if accessToken, err = readSecret("access token: "); err != nil {
			return fmt.Errorf("reading access token: %w", err)
		}
	}
	if accessToken == "" {
		return errors.New("access token cannot be empty")
	}

	refreshToken := cmd.String("refresh-token")
	if refreshToken == "" && !cmd.IsSet("refresh-token") {
		if refreshToken, err = readSecret("refresh token (optional): "); err != nil {
			return fmt.Errorf("reading refresh token: %w", err)
		}
	}

	rec := credstore.Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cmd.Duration("expires-in")).UnixMilli(),
		TokenType:    cmd.String("token-type"),
		Scope:        cmd.String("scope"),
	}

	if err := application.Store().Set(ctx, provider, rec); err != nil {
		return fmt.Errorf("storing credentials for %s: %w", provider, err)
	}

	fmt.Printf("stored credentials for %s\n", provider)
	return nil
}

func tokenRefreshAction(ctx context.Context, cmd *cli.Command) error {
	provider, err := providerArg(cmd)
	if err != nil {
		return err
	}

	application, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	source, err := application.AuthProvider(provider)
	if err != nil {
		return err
	}

	// Near or past expiry this refreshes and persists the rotated record
	if _, err := source.AccessToken(ctx); err != nil {
		return err
	}

	rec, ok := application.Store().Get(provider)
	if !ok {
		return fmt.Errorf("no stored credentials for provider %s", provider)
	}
	fmt.Printf("access token for %s valid until %s\n", provider, rec.Expiry().Format(time.RFC3339))
	return nil
}

// readSecret reads one secret value: without echo from a terminal, as a
// single line otherwise (pipes, CI).
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
