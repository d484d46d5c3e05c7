// Package quantize runs the colour quantization pipeline: conversion into Lab,
// clustering with the selected strategy, and reconstruction of the image from
// the cluster centroids.
package quantize

import (
	"fmt"
	"strings"
)

// Mode selects the clustering strategy.
type Mode string

const (
	// ModeKMeans partitions pixels into a K chosen by silhouette search.
	ModeKMeans Mode = "kmeans"
	// ModeMeanShift finds density modes; the data decides the cluster count.
	ModeMeanShift Mode = "meanshift"
)

// ValidModes returns the supported clustering modes.
func ValidModes() []Mode {
	return []Mode{ModeKMeans, ModeMeanShift}
}

// ParseMode converts a string to a Mode.
// "partitioning" and "mode-seeking" are accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kmeans", "k-means", "partitioning":
		return ModeKMeans, nil
	case "meanshift", "mean-shift", "mode-seeking":
		return ModeMeanShift, nil
	default:
		return "", fmt.Errorf("unknown clustering mode: %s (valid: kmeans, meanshift)", s)
	}
}

// MinClusters is the smallest cluster count the mode can produce.
func (m Mode) MinClusters(kMin int) int {
	if m == ModeKMeans {
		return kMin
	}
	return 1
}
