// Command issuetoken prints an access token for a member id, signed with the
// same secret the server verifies.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/dtroode/chatstation-server/internal/config"
	"github.com/dtroode/chatstation-server/internal/token"
)

func main() {
	envFile := pflag.String("env-file", "", "path to a dotenv file with JWT_* settings")
	userID := pflag.String("user-id", "", "member id to put in the token subject")
	ttl := pflag.Duration("ttl", 0, "token lifetime, overrides JWT_TTL")
	pflag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("failed to load env file %s: %v", *envFile, err)
		}
	}

	id, err := uuid.Parse(*userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "usage: issuetoken --user-id <uuid> [--ttl 1h] [--env-file .env]")
		os.Exit(2)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if *ttl > 0 {
		cfg.JWT.TTL = *ttl
	}

	accessToken, err := token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL).GenerateAccessToken(id)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(accessToken)
}
