package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go-photo-insight/internal/config"
	"go-photo-insight/internal/container"
)

// analyze runs the pipeline once against a local file or URL and prints the
// result as JSON. Useful for poking at analyzer output without the server.
func main() {
	forceRefresh := flag.Bool("force-refresh", false, "bypass the result cache")
	timeout := flag.Duration("timeout", 30*time.Second, "overall analysis deadline")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <image-path-or-url>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	ref := flag.Arg(0)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := c.Service().AnalyzeRef(ctx, ref, *forceRefresh)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		log.Fatalf("Encoding result: %v", err)
	}
}
