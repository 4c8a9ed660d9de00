package hdfs

import (
	"os"
	"path/filepath"
)

const (
	// DefaultBinary is used when no other strategy yields a client path.
	DefaultBinary = "hadoop"
	// DefaultHomeEnv names the installation root of the client.
	DefaultHomeEnv = "HADOOP_HOME"
)

// BinaryStrategy yields a client binary path, or false when it has no opinion.
type BinaryStrategy func() (string, bool)

// ExplicitBinary uses path when it is non-empty.
func ExplicitBinary(path string) BinaryStrategy {
	return func() (string, bool) {
		return path, path != ""
	}
}

// HomeBinary joins the installation root named by envVar with bin/hadoop.
func HomeBinary(envVar string) BinaryStrategy {
	return homeBinary(os.LookupEnv, envVar)
}

func homeBinary(lookup func(string) (string, bool), envVar string) BinaryStrategy {
	return func() (string, bool) {
		if envVar == "" {
			return "", false
		}
		home, ok := lookup(envVar)
		if !ok || home == "" {
			return "", false
		}
		return filepath.Join(home, "bin", DefaultBinary), true
	}
}

// SearchPathBinary leaves name to be resolved on PATH at spawn time.
func SearchPathBinary(name string) BinaryStrategy {
	return func() (string, bool) {
		return name, name != ""
	}
}

// ResolveBinary evaluates strategies in order and returns the first answer.
func ResolveBinary(strategies ...BinaryStrategy) string {
	for _, s := range strategies {
		if path, ok := s(); ok {
			return path
		}
	}
	return DefaultBinary
}
