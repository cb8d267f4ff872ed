// Command token-generator prints a signed access token for local testing.
// It reads the same configuration as the server, so the token validates
// against a server started with that configuration.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("token-generator", pflag.ExitOnError)
	config.RegisterFlags(fs)
	username := fs.String("username", "", "token subject (required)")
	_ = fs.Parse(os.Args[1:])

	if *username == "" {
		fmt.Fprintln(os.Stderr, "--username is required")
		os.Exit(2)
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		os.Exit(1)
	}

	token, err := jwtService.GenerateToken(context.Background(), *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token for %s: %v\n", *username, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
