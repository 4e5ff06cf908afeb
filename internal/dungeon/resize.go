package dungeon

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/logger"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
)

// DefaultMaxFloors is the largest floor list a group may be resized to
const DefaultMaxFloors = 99

// FixedFloorPosition is where a fixed floor is put back after resizing
type FixedFloorPosition int

const (
	PositionBegin FixedFloorPosition = iota
	PositionMiddle
	PositionEnd
)

// String returns the string representation of a FixedFloorPosition
func (p FixedFloorPosition) String() string {
	switch p {
	case PositionBegin:
		return "begin"
	case PositionMiddle:
		return "middle"
	case PositionEnd:
		return "end"
	default:
		return "unknown"
	}
}

// classifyFixedFloor tags a fixed floor by its index inside a dungeon of
// numberFloors floors. END never matches an index inside the range, so in
// practice fixed floors are BEGIN or MIDDLE.
func classifyFixedFloor(index, numberFloors int) FixedFloorPosition {
	switch {
	case index == 0:
		return PositionBegin
	case index > numberFloors-1:
		return PositionEnd
	default:
		return PositionMiddle
	}
}

// ResizeParams holds the floor count change settings
type ResizeParams struct {
	MinChangePercent int
	MaxChangePercent int
	MaxFloors        int // DefaultMaxFloors if zero
}

// Enabled returns true if the settings can change floor counts at all
func (p ResizeParams) Enabled() bool {
	return p.MinChangePercent != 0 || p.MaxChangePercent != 0
}

// GroupDungeon is one dungeon of the group being resized
type GroupDungeon struct {
	ID        int
	Def       mappa.DungeonDef
	Randomize bool
}

// locked dungeons keep their floors verbatim
func (g GroupDungeon) locked() bool {
	return !g.Randomize || g.Def.NumberFloors < 2
}

// ResizeOutcome is the result of resizing one group. When Applied is false
// the caller keeps its original floor list and dungeon table and Reason says
// why.
type ResizeOutcome struct {
	Applied  bool
	Floors   []*mappa.Floor
	Dungeons []GroupDungeon // ordered by new StartAfter
	Reason   string
}

// abortError marks an infeasible resize. It never leaves ResizeGroup.
type abortError struct {
	reason string
}

func (e *abortError) Error() string {
	return e.reason
}

func abortf(format string, args ...any) error {
	return &abortError{reason: fmt.Sprintf(format, args...)}
}

// Resizer changes the number of floors of floor-list groups
type Resizer struct {
	rng    *rand.Rand
	params ResizeParams
}

// NewResizer creates a resizer drawing from rng
func NewResizer(rng *rand.Rand, params ResizeParams) *Resizer {
	if params.MaxFloors <= 0 {
		params.MaxFloors = DefaultMaxFloors
	}
	return &Resizer{rng: rng, params: params}
}

// ResizeGroup builds a new floor list for one group and new definitions for
// its dungeons. old and dungeons are not modified. An infeasible resize is
// reported as an outcome that is not applied; the error is only set when a
// floor cannot be copied.
func (r *Resizer) ResizeGroup(mappaIndex int, old []*mappa.Floor, dungeons []GroupDungeon) (ResizeOutcome, error) {
	outcome, err := r.resize(old, dungeons)

	var abort *abortError
	if errors.As(err, &abort) {
		logger.Info("Floor list resize aborted", "mappa_index", mappaIndex, "reason", abort.reason)
		return ResizeOutcome{Reason: abort.reason}, nil
	}
	if err != nil {
		return ResizeOutcome{}, fmt.Errorf("resize floor list %d: %w", mappaIndex, err)
	}

	logger.Debug("Resized floor list", "mappa_index", mappaIndex, "old_floors", len(old), "new_floors", len(outcome.Floors))
	return outcome, nil
}

type dungeonPlan struct {
	GroupDungeon
	fixed  []fixedFloor
	work   []*mappa.Floor
	length int
}

type fixedFloor struct {
	floor    *mappa.Floor
	position FixedFloorPosition
}

func (r *Resizer) resize(old []*mappa.Floor, dungeons []GroupDungeon) (ResizeOutcome, error) {
	if len(old) == 0 || len(dungeons) == 0 {
		return ResizeOutcome{}, abortf("empty group")
	}

	plans := make([]*dungeonPlan, len(dungeons))
	for i, d := range dungeons {
		plans[i] = &dungeonPlan{GroupDungeon: d}
	}
	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].Def.StartAfter != plans[j].Def.StartAfter {
			return plans[i].Def.StartAfter < plans[j].Def.StartAfter
		}
		return plans[i].ID < plans[j].ID
	})

	offset := 0
	for _, p := range plans {
		if p.Def.StartAfter != offset || p.Def.NumberFloors < 1 {
			return ResizeOutcome{}, abortf("dungeon %d does not continue the floor list at %d", p.ID, offset)
		}
		offset = p.Def.End()
	}
	if offset != len(old) {
		return ResizeOutcome{}, abortf("dungeons cover %d of %d floors", offset, len(old))
	}

	lockedLen, resizable := 0, 0
	for _, p := range plans {
		if p.locked() {
			lockedLen += p.Def.NumberFloors
		} else {
			resizable++
		}
	}
	if resizable == 0 {
		return ResizeOutcome{}, abortf("no resizable dungeons")
	}

	size := r.targetSize(len(old), lockedLen+resizable)

	// Per-dungeon lengths scale with the group
	increase := float64(size-lockedLen) / float64(len(old))
	total := lockedLen
	for _, p := range plans {
		if p.locked() {
			continue
		}
		p.length = int(math.Floor(float64(p.Def.NumberFloors) * increase))
		if p.length < 1 {
			p.length = 1
		}
		total += p.length

		floors := old[p.Def.StartAfter:p.Def.End()]
		for i, f := range floors {
			if f.IsFixed() {
				p.fixed = append(p.fixed, fixedFloor{floor: f, position: classifyFixedFloor(i, p.Def.NumberFloors)})
			}
		}
		work, err := r.fit(append([]*mappa.Floor(nil), floors...), p.length, old[0])
		if err != nil {
			return ResizeOutcome{}, err
		}
		p.work = work
	}

	for total < size {
		for _, p := range plans {
			if total >= size {
				break
			}
			if p.locked() {
				continue
			}
			p.length++
			total++
		}
	}
	for total > size {
		removed := false
		for _, p := range plans {
			if total <= size {
				break
			}
			if p.locked() || p.length < 2 {
				continue
			}
			p.length--
			total--
			removed = true
		}
		if !removed {
			return ResizeOutcome{}, abortf("cannot shrink group to %d floors", size)
		}
	}

	for _, p := range plans {
		if p.locked() {
			continue
		}
		if err := r.placeFixedFloors(p, old[0]); err != nil {
			return ResizeOutcome{}, err
		}
	}

	outcome := ResizeOutcome{Applied: true}
	for _, p := range plans {
		floors := p.work
		if p.locked() {
			floors = old[p.Def.StartAfter:p.Def.End()]
		}
		def := p.Def
		def.StartAfter = len(outcome.Floors)
		def.NumberFloors = len(floors)
		outcome.Floors = append(outcome.Floors, floors...)
		outcome.Dungeons = append(outcome.Dungeons, GroupDungeon{ID: p.ID, Def: def, Randomize: p.Randomize})
	}
	if len(outcome.Floors) != size {
		return ResizeOutcome{}, abortf("reassembled %d floors, want %d", len(outcome.Floors), size)
	}
	for i := range outcome.Dungeons {
		outcome.Dungeons[i].Def.NumberFloorsInGroup = size
	}
	return outcome, nil
}

// targetSize draws the new group length from the configured change range
func (r *Resizer) targetSize(n, minimum int) int {
	low := int(math.Round(float64(n) * (1 + float64(r.params.MinChangePercent)/100)))
	high := int(math.Round(float64(n) * (1 + float64(r.params.MaxChangePercent)/100)))

	size := n
	if low <= high {
		size = low + r.rng.Intn(high-low+1)
	}
	if size > r.params.MaxFloors {
		size = r.params.MaxFloors
	}
	if size < minimum {
		size = minimum
	}
	return size
}

// placeFixedFloors trims the random floors of a dungeon to leave room for its
// fixed floors and puts the fixed floors back
func (r *Resizer) placeFixedFloors(p *dungeonPlan, template *mappa.Floor) error {
	expected := p.length - len(p.fixed)
	if expected < 0 {
		return abortf("dungeon %d has %d fixed floors but only %d floors", p.ID, len(p.fixed), p.length)
	}

	var random []*mappa.Floor
	for _, f := range p.work {
		if !f.IsFixed() {
			random = append(random, f)
		}
	}
	random, err := r.fit(random, expected, template)
	if err != nil {
		return err
	}

	var begin, end []*mappa.Floor
	for _, ff := range p.fixed {
		switch ff.position {
		case PositionBegin:
			begin = append(begin, ff.floor)
		case PositionEnd:
			end = append(end, ff.floor)
		default:
			random = insertFloor(random, r.rng.Intn(len(random)+1), ff.floor)
		}
	}

	list := make([]*mappa.Floor, 0, p.length)
	list = append(list, begin...)
	list = append(list, random...)
	list = append(list, end...)
	if len(list) != p.length {
		return abortf("dungeon %d rebuilt with %d floors, want %d", p.ID, len(list), p.length)
	}
	p.work = list
	return nil
}

// fit grows list with random copies of its randomizable floors, or of
// template if it has none, and shrinks it by deleting random floors. list
// must not alias the caller's floor list.
func (r *Resizer) fit(list []*mappa.Floor, target int, template *mappa.Floor) ([]*mappa.Floor, error) {
	for len(list) < target {
		src := template
		var candidates []*mappa.Floor
		for _, f := range list {
			if !f.IsFixed() {
				candidates = append(candidates, f)
			}
		}
		if len(candidates) > 0 {
			src = candidates[r.rng.Intn(len(candidates))]
		}
		dup, err := src.DuplicateRandom()
		if err != nil {
			return nil, err
		}
		list = insertFloor(list, r.rng.Intn(len(list)+1), dup)
	}
	for len(list) > target {
		i := r.rng.Intn(len(list))
		list = append(list[:i], list[i+1:]...)
	}
	return list, nil
}

func insertFloor(list []*mappa.Floor, pos int, f *mappa.Floor) []*mappa.Floor {
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = f
	return list
}
