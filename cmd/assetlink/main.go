// Package main provides the assetlink CLI, which links a project's asset
// files into its Android and iOS native projects.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
