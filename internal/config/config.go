// Package config centralizes the broker's three on-disk/network knobs. The
// core takes no CLI flags, environment variables, or config files — Default
// is the only source of truth — but keeping the values in a struct rather
// than scattered string literals lets tests point the broker at a temp
// directory, the way the example corpus's handler tests thread a
// config.Config into their handler constructors.
package config

import (
	"path/filepath"
	"strconv"
)

// Config holds the broker's listen address and the two filesystem roots it
// reads from.
type Config struct {
	// ListenAddr is the TCP address the server binds.
	ListenAddr string

	// MetadataLogPath is the KRaft combined-metadata-log file parsed once
	// at startup to build the cluster-metadata index.
	MetadataLogPath string

	// LogSegmentRoot is the directory under which per-partition log
	// segments live, one subdirectory per "{topic}-{partition}".
	LogSegmentRoot string
}

// Default returns the broker's hardcoded configuration.
func Default() Config {
	root := "/tmp/kraft-combined-logs"
	return Config{
		ListenAddr:      "127.0.0.1:9092",
		MetadataLogPath: filepath.Join(root, "__cluster_metadata-0", "00000000000000000000.log"),
		LogSegmentRoot:  root,
	}
}

// PartitionLogPath returns the path to a partition's single log segment.
func (c Config) PartitionLogPath(topic string, partition int32) string {
	dir := topic + "-" + strconv.Itoa(int(partition))
	return filepath.Join(c.LogSegmentRoot, dir, "00000000000000000000.log")
}
