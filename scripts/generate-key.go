// Package main is a development utility for generating a random password with
// its bcrypt hash pre-computed. It prints the raw password, the hash, and a
// ready-to-run SQL INSERT statement so developers can quickly seed a platform
// admin user in a local database without running the full server flow. Do not
// use generated credentials in production; seed the initial admin through the
// MIS_BOOTSTRAP_ADMIN_EMAIL / MIS_BOOTSTRAP_ADMIN_PASSWORD environment
// variables instead.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Generate random bytes
	randomBytes := make([]byte, 24)
	_, err := rand.Read(randomBytes)
	if err != nil {
		log.Fatal(err)
	}

	password := base64.RawURLEncoding.EncodeToString(randomBytes)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("==========================================================")
	fmt.Println("Dev Admin Credentials Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nPassword: %s\n", password)
	fmt.Printf("\nHash: %s\n", string(hashBytes))
	fmt.Println("\n==========================================================")
	fmt.Println("SQL Insert:")
	fmt.Println("==========================================================")
	fmt.Printf(`
INSERT INTO users (email, password_hash, name, is_platform_admin)
VALUES ('admin@dev.local', '%s', 'Dev Admin', TRUE);
`, string(hashBytes))
	fmt.Println("\n==========================================================")
	fmt.Printf("Login: admin@dev.local / %s\n", password)
	fmt.Println("==========================================================")
}
