// Package main provides a one-shot utility for event token key generation.
//
// It emits the asymmetric keypair used to sign exploration event
// continuation tokens.
package main

import (
	"os"

	"github.com/louisbranch/extraction.zone/internal/platform/config"
	"github.com/louisbranch/extraction.zone/internal/tools/eventkey"
)

func main() {
	if err := eventkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate event token key: %v", err)
	}
}
