package main

import "github.com/ogulcanaydogan/fleet-expiry-guardian/internal/cli"

func main() {
	cli.Execute()
}
