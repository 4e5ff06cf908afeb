package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
)

func main() {
	groups := flag.Int("groups", 8, "Number of floor lists to generate")
	maxDungeons := flag.Int("max-dungeons", 3, "Maximum dungeons per floor list")
	maxFloors := flag.Int("max-floors", 12, "Maximum floors per dungeon")
	fixedChance := flag.Int("fixed-chance", 10, "Percent chance that a floor is fixed")
	seed := flag.Int64("seed", 42, "Seed for generation")
	out := flag.String("out", "data/mappa.yaml", "Output floor data file (.yaml or .yaml.zst)")
	itemsOut := flag.String("items-out", "", "Also write a matching items catalog to this path")
	flag.Parse()

	if *groups < 1 || *maxDungeons < 1 || *maxFloors < 1 {
		fmt.Fprintln(os.Stderr, "Error: --groups, --max-dungeons and --max-floors must be at least 1")
		flag.Usage()
		os.Exit(1)
	}
	if *fixedChance < 0 || *fixedChance > 100 {
		fmt.Fprintln(os.Stderr, "Error: --fixed-chance must be between 0 and 100")
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	gen := NewFloorGenerator(*seed, GeneratorConfig{
		Groups:      *groups,
		MaxDungeons: *maxDungeons,
		MaxFloors:   *maxFloors,
		FixedChance: *fixedChance,
	})

	fmt.Printf("Generating %d floor lists (seed: %d)\n", *groups, *seed)
	data := gen.Generate()

	if err := mappa.SaveData(*out, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d dungeons to %s\n", len(data.Dungeons), *out)

	if *itemsOut != "" {
		if err := WriteItemsYAML(SampleItems(), *itemsOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write items: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote items catalog to %s\n", *itemsOut)
	}
}
