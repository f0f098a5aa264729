// Command tokengen issues bearer tokens for the API when auth is
// enabled, and hashes API keys for the auth.api_key_hashes config list.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scholaris/scholaris-backend/internal/auth"
	"github.com/scholaris/scholaris-backend/internal/config"
)

func main() {
	subject := flag.String("subject", "", "issue a JWT for this subject")
	hashKey := flag.String("hash", "", "print the bcrypt hash of this API key")
	flag.Parse()

	if *hashKey != "" {
		hash, err := auth.HashAPIKey(*hashKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to hash key:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -subject <name> | -hash <api-key>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "auth.jwt_secret is not configured")
		os.Exit(1)
	}

	token, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer).GenerateToken(*subject)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to generate token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
