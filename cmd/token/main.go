package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"cropcast/internal/config"
	"cropcast/internal/utils"

	"github.com/joho/godotenv"
)

// Prints a development bearer token for the given user.
func main() {
	userID := flag.Uint("user", 1, "user id to put in the token")
	email := flag.String("email", "", "optional email claim")
	ttl := flag.Duration("ttl", 72*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.LoadConfig()

	token, err := utils.GenerateToken(cfg.JWTSecret, *userID, *email, *ttl)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Println(token)
}
