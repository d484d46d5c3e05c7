// labquant - colour quantization in CIE Lab space
//
// labquant clusters the pixels of an image in Lab space with k-means or
// mean shift and rebuilds the image from the cluster colours.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/labquant/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
