package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/orbitapp/orbitsync/internal/remote/google"
	"github.com/orbitapp/orbitsync/internal/ui"
	"github.com/orbitapp/orbitsync/internal/util"
)

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Google",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Re-authenticate even when a saved token exists",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := util.EnsureConfigDir(); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}

			auth := google.NewAuth(util.OAuthClientPath(), util.TokenPath())
			if auth.Authenticated() && !cmd.Bool("force") {
				fmt.Println(ui.StatusSuccess("Already authenticated; use --force to re-authenticate"))
				return nil
			}

			if _, err := os.Stat(util.OAuthClientPath()); err != nil {
				fmt.Println("To authenticate you need Google OAuth credentials:")
				fmt.Println("  1. Go to https://console.cloud.google.com/apis/credentials")
				fmt.Println("  2. Enable the Tasks, Calendar, and People APIs")
				fmt.Println("  3. Create an OAuth client ID of type 'Desktop app'")
				fmt.Printf("  4. Download the JSON and save it as %s\n", util.OAuthClientPath())
				return fmt.Errorf("oauth client configuration not found at %s", util.OAuthClientPath())
			}

			if err := auth.Login(ctx, func(url string) {
				fmt.Println("Open this URL in your browser:")
				fmt.Println(url)
			}); err != nil {
				return err
			}

			fmt.Println(ui.StatusSuccess("Authenticated; token saved"))
			return nil
		},
	}
}
