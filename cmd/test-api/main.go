// Package main is a smoke-test utility that verifies the platform's HTTP API
// is reachable and returning valid responses. It issues real HTTP requests to
// the health endpoint and the public plan catalogue and prints the status code
// and response body, making it useful for quick post-deployment checks without
// needing external tooling like curl or a full integration test suite.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	baseURL := "http://localhost:8080"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}

	for _, path := range []string{"/health", "/api/v1/plans"} {
		resp, err := http.Get(baseURL + path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			fmt.Printf("Error reading body: %v\n", err)
			return
		}

		fmt.Printf("GET %s\n", path)
		fmt.Printf("Status: %d\n", resp.StatusCode)
		fmt.Printf("Response:\n%s\n\n", string(body))
	}
}
