// Package main is a diagnostic tool for testing database connectivity and
// inspecting live platform data. It connects to the database, queries the
// organizations and projects tables, and prints a summary to stdout. The
// binary exits with a non-zero code on any failure so it can be embedded in
// health checks or CI/CD pipeline steps to gate deployments on a reachable,
// populated database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "tanx"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=tanx password=%s dbname=tanx_mis sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	// Check organizations
	fmt.Println("=== ORGANIZATIONS ===")
	rows, err := db.Query("SELECT id, name, status FROM organizations")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, status string
		if err := rows.Scan(&id, &name, &status); err != nil {
			log.Printf("Warning: failed to scan organization row: %v", err)
			continue
		}
		fmt.Printf("Organization: %s [%s] (ID: %s)\n", name, status, id)
	}

	// Check projects
	fmt.Println("\n=== PROJECTS ===")
	rows2, err := db.Query("SELECT id, organization_id, name, status, description FROM projects")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	count := 0
	for rows2.Next() {
		var id, orgID, name, status string
		var description *string
		if err := rows2.Scan(&id, &orgID, &name, &status, &description); err != nil {
			log.Printf("Warning: failed to scan project row: %v", err)
			continue
		}
		hasDescription := "NO"
		if description != nil && *description != "" {
			hasDescription = fmt.Sprintf("YES (%d chars)", len(*description))
		}
		fmt.Printf("Project: %s [%s] (Org: %s, ID: %s) - Description: %s\n", name, status, orgID, id, hasDescription)
		count++
	}

	if count == 0 {
		fmt.Println("No projects found!")
	}
}
