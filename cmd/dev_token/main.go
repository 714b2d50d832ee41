package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// dev_token prints a bearer token for local testing. The API never checks
// signatures, so an unsigned token is enough; -secret signs with HS256 for
// clients that insist on a signed token.
func main() {
	email := flag.String("email", "", "email claim (required)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime, 0 for no exp claim")
	secret := flag.String("secret", "", "sign with HS256 using this secret")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"email": *email,
		"iat":   now.Unix(),
	}
	if *ttl > 0 {
		claims["exp"] = now.Add(*ttl).Unix()
	}

	var (
		token string
		err   error
	)
	if *secret != "" {
		token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*secret))
	} else {
		token, err = jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	}
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}

	fmt.Println(token)
}
