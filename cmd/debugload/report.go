package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/database"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/items"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
)

// printSummary writes floor counts, the floors-per-dungeon histogram and,
// when verbose, the dungeon table
func printSummary(w io.Writer, data *mappa.Data, bins int, verbose bool) error {
	fmt.Fprintf(w, "Loaded %d floor lists and %d dungeons\n", len(data.FloorLists), len(data.Dungeons))

	fixed := 0
	total := 0
	for _, group := range data.FloorLists {
		total += len(group)
		for _, floor := range group {
			if floor.IsFixed() {
				fixed++
			}
		}
	}
	fmt.Fprintf(w, "Floors: %d (%d fixed)\n", total, fixed)

	if len(data.Dungeons) > 0 && bins > 0 {
		counts := make([]float64, len(data.Dungeons))
		for i, d := range data.Dungeons {
			counts[i] = float64(d.NumberFloors)
		}
		fmt.Fprintln(w, "\n--- Floors per dungeon ---")
		if err := histogram.Fprint(w, histogram.Hist(bins, counts), histogram.Linear(40)); err != nil {
			return err
		}
	}

	if verbose {
		fmt.Fprintln(w, "\n--- Dungeons ---")
		for id, d := range data.Dungeons {
			fmt.Fprintf(w, "  %3d: floor list %3d, floors [%d, %d) of %d\n",
				id, d.MappaIndex, d.StartAfter, d.End(), d.NumberFloorsInGroup)
		}
	}
	return nil
}

// printDungeon lists the floors of one dungeon. Floor items are shown by
// name when a catalog is given.
func printDungeon(w io.Writer, data *mappa.Data, id int, catalog *items.Catalog) error {
	floors, err := data.DungeonFloors(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n--- Dungeon %d ---\n", id)
	for i, floor := range floors {
		fmt.Fprintf(w, "  floor %2d: music %d, %d monsters, %d traps", i+1,
			floor.Layout.MusicID, len(floor.MonsterSpawns), len(floor.Traps))
		if floor.IsFixed() {
			fmt.Fprintf(w, ", fixed %d", floor.FixedFloorID)
		}
		fmt.Fprintln(w)

		ids := make([]int, 0, len(floor.FloorItems.Items))
		for itemID := range floor.FloorItems.Items {
			ids = append(ids, itemID)
		}
		sort.Ints(ids)
		names := make([]string, len(ids))
		for j, itemID := range ids {
			names[j] = itemLabel(catalog, itemID)
		}
		if len(names) > 0 {
			fmt.Fprintf(w, "            items: %s\n", strings.Join(names, ", "))
		}
	}
	return nil
}

func itemLabel(catalog *items.Catalog, id int) string {
	if catalog != nil {
		if name := catalog.Name(id); name != "" {
			return name
		}
	}
	return fmt.Sprintf("#%d", id)
}

// printHistory lists the latest runs and their group resizes
func printHistory(w io.Writer, db *database.Database, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n--- Last %d runs ---\n", len(runs))
	for _, run := range runs {
		printRun(w, run)
		resizes, err := db.GetGroupResizes(run.ID)
		if err != nil {
			return err
		}
		for _, r := range resizes {
			status := "applied"
			if !r.Applied {
				status = "aborted: " + r.Reason
			}
			fmt.Fprintf(w, "      floor list %d: %d -> %d (%s)\n", r.MappaIndex, r.OldFloors, r.NewFloors, status)
		}
	}
	return nil
}

// printRunsForOutput lists the runs that produced data
func printRunsForOutput(w io.Writer, db *database.Database, data *mappa.Data) (int, error) {
	var buf bytes.Buffer
	if err := mappa.EncodeData(&buf, data); err != nil {
		return 0, err
	}
	digest := database.Digest(buf.Bytes())

	runs, err := db.FindRunsByOutput(digest)
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(w, "\n--- Runs producing %s ---\n", digest)
	if len(runs) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, run := range runs {
		printRun(w, run)
	}
	return len(runs), nil
}

func printRun(w io.Writer, run database.Run) {
	fmt.Fprintf(w, "  run %d: seed %d, %s, floors %d -> %d, %d repairs, %s",
		run.ID, run.Seed, run.ItemAlgorithm, run.FloorsBefore, run.FloorsAfter, run.Repairs,
		run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.Error != "" {
		fmt.Fprintf(w, ", failed: %s", run.Error)
	}
	fmt.Fprintln(w)
}
