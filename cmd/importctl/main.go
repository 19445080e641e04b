// cmd/importctl/main.go
// Runs result imports from the command line, outside the HTTP server.
//
// Usage:
//
//	go run ./cmd/importctl sessions 12
//	go run ./cmd/importctl race 12 --session 9472
//	go run ./cmd/importctl qualifying 12 --meeting 1229
//	go run ./cmd/importctl rescore 12
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
