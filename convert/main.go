package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
	"github.com/dannythehacker/Amulet-Core/store"
	"github.com/dannythehacker/Amulet-Core/translate"
	"github.com/dannythehacker/Amulet-Core/version"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: convert <rules.yaml> <input-world> <output-world>")
		fmt.Println("Example: convert java_1_20.yaml world_in world_out")
		os.Exit(1)
	}

	rulesFile := os.Args[1]
	inputDir := os.Args[2]
	outputDir := os.Args[3]

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	rules, err := version.LoadRuleSetFile(rulesFile)
	if err != nil {
		panic(err)
	}

	manager := version.NewManager()
	manager.Register(rules.Key(), rules.Version())

	src, err := store.Open(inputDir)
	if err != nil {
		panic(err)
	}
	defer src.Close()

	dst, err := store.Open(outputDir)
	if err != nil {
		panic(err)
	}
	defer dst.Close()

	translator := translate.New(manager,
		translate.WithLogger(log),
		translate.WithEntitySupport(true),
	)
	loader := src.Loader()

	fmt.Printf("Converting world %q (%s %v) to the universal format...\n",
		inputDir, rules.Key().Platform, rules.Key().Number)

	converted := 0
	err = src.Each(func(c *chunk.Chunk, palette block.Palette) error {
		uc, upal, err := translator.ToUniversal(rules.Key(), c, palette, loader, true)
		if err != nil {
			fmt.Printf("Warning: failed to convert chunk (%d,%d): %v\n", c.Cx, c.Cz, err)
			return nil
		}
		if err := dst.Put(uc, upal); err != nil {
			return fmt.Errorf("store chunk (%d,%d): %w", uc.Cx, uc.Cz, err)
		}
		converted++
		if converted%64 == 0 {
			fmt.Printf("  Progress: %d chunks\n", converted)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Done: %d chunks converted.\n", converted)
}
