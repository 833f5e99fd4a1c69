// Command corelgo learns optimal rule lists from dataset files.
//
//	corelgo learn --dir ./data --rules compas.out --labels compas.label -c 0.005
//	corelgo learn --config run.yaml -o report.json
//	corelgo convert --dir ./data --rules compas.out --labels compas.label --out-dir ./packed --compression zstd
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
