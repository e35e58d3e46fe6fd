package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ken/internmatch/internal/config"
	"github.com/ken/internmatch/pkg/embedding"
)

// previewValues is how many leading components embed prints
const previewValues = 8

// handleEmbed processes the embed command
// Usage:
//
//	internmatch embed <text>
func handleEmbed(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: embed <text>")
	}
	text := strings.Join(args, " ")

	ctx := context.Background()
	engine, err := embedding.NewEngine(ctx, engineConfig(cfg))
	if err != nil {
		return err
	}
	defer engine.Close()

	v, err := engine.Encode(ctx, text)
	if err != nil {
		return err
	}

	fmt.Printf("Model: %s\n", engine.ModelName())
	fmt.Printf("Dimension: %d\n", v.Dimension)
	fmt.Printf("Magnitude: %.6f\n", v.Magnitude())
	if v.IsZero() {
		fmt.Println("Zero vector: every cosine score against it is 0")
		return nil
	}

	n := previewValues
	if n > v.Dimension {
		n = v.Dimension
	}
	fmt.Println("Values:")
	for i := 0; i < n; i++ {
		fmt.Printf("  [%d]: %f\n", i, v.Values[i])
	}
	if v.Dimension > n {
		fmt.Printf("  ... %d more\n", v.Dimension-n)
	}
	return nil
}
