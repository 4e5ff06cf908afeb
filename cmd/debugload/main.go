package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/database"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/dungeon"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/items"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/logger"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
)

func main() {
	path := flag.String("in", "data/mappa.yaml", "Path to floor data (.yaml or .yaml.zst)")
	verbose := flag.Bool("v", false, "List every dungeon and log at debug level")
	bins := flag.Int("bins", 8, "Histogram bins for dungeon floor counts")
	dungeonID := flag.Int("dungeon", -1, "List the floors of this dungeon")
	itemsFile := flag.String("items", "", "Items YAML file for item names in -dungeon output")
	dbFile := flag.String("db", "", "SQLite run history to query")
	history := flag.Int("history", 0, "List this many of the latest runs from -db")
	findOutput := flag.Bool("find-output", false, "List the runs in -db that produced the loaded file")
	flag.Parse()

	level := "WARNING"
	if *verbose {
		level = "DEBUG"
	}
	logger.SetOutput(os.Stderr, level)

	data, err := mappa.LoadData(*path)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	if err := printSummary(os.Stdout, data, *bins, *verbose); err != nil {
		fmt.Println("Error:", err)
	}

	if *dungeonID >= 0 {
		var catalog *items.Catalog
		if *itemsFile != "" {
			if catalog, err = items.LoadItemsFromYAML(*itemsFile); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
		}
		if err := printDungeon(os.Stdout, data, *dungeonID, catalog); err != nil {
			fmt.Println("Error:", err)
		}
	}

	if *dbFile != "" && (*history > 0 || *findOutput) {
		db, err := database.Open(*dbFile)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		if *history > 0 {
			if err := printHistory(os.Stdout, db, *history); err != nil {
				fmt.Println("Error:", err)
			}
		}
		if *findOutput {
			if _, err := printRunsForOutput(os.Stdout, db, data); err != nil {
				fmt.Println("Error:", err)
			}
		}
		db.Close()
	}

	fmt.Println("\n--- Checking dungeon table ---")
	errs := dungeon.Validate(data)
	if len(errs) == 0 {
		fmt.Println("No errors found")
		return
	}
	for _, e := range errs {
		fmt.Printf("  [%s] %v\n", e.Kind, e)
	}
	os.Exit(1)
}
