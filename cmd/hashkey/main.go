package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spec-kit/ticket-resolver/internal/auth"
	"github.com/spec-kit/ticket-resolver/internal/config"
)

// hashkey prints the bcrypt hash of an API key, for the AUTH_API_KEY_HASH
// setting. Cost comes from AUTH_BCRYPT_COST.
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <api-key>", os.Args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	hash, err := auth.HashAPIKey(os.Args[1], cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("failed to hash key: %v", err)
	}
	fmt.Println(hash)
}
