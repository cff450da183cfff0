package loot

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
)

// Entry is one weighted row of a loot table. Quantity is drawn uniformly
// from [MinQuantity, MaxQuantity] when the entry is rolled.
type Entry struct {
	Item        string  `json:"item" jsonschema:"required"`
	Weight      float64 `json:"weight" jsonschema:"required,minimum=0"`
	MinQuantity int     `json:"minQuantity"`
	MaxQuantity int     `json:"maxQuantity"`
}

// Table is an ordered weighted loot table.
type Table []Entry

// Stack is a rolled result: an item type and a concrete quantity.
type Stack struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// ErrEmptyTable is returned when a table has no entry with positive weight.
var ErrEmptyTable = errors.New("loot: table has no positive-weight entries")

// Pick selects one entry by normalized weight: it walks the cumulative
// distribution and returns the first entry whose cumulative weight meets the
// uniform draw. The random source is injected so tests can be deterministic.
func Pick(table Table, rng *rand.Rand) (Entry, error) {
	var total float64
	for _, entry := range table {
		if entry.Weight > 0 {
			total += entry.Weight
		}
	}
	if total <= 0 {
		return Entry{}, ErrEmptyTable
	}

	draw := rng.Float64() * total
	var cumulative float64
	for _, entry := range table {
		if entry.Weight <= 0 {
			continue
		}
		cumulative += entry.Weight
		if draw <= cumulative {
			return entry, nil
		}
	}
	// Floating-point accumulation can leave draw a hair above the final
	// cumulative sum; the last positive entry wins.
	for i := len(table) - 1; i >= 0; i-- {
		if table[i].Weight > 0 {
			return table[i], nil
		}
	}
	return Entry{}, ErrEmptyTable
}

// Roll picks an entry and draws its quantity from [MinQuantity, MaxQuantity].
func Roll(table Table, rng *rand.Rand) (Stack, error) {
	entry, err := Pick(table, rng)
	if err != nil {
		return Stack{}, err
	}

	min, max := entry.MinQuantity, entry.MaxQuantity
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	qty := min
	if max > min {
		qty = min + rng.Intn(max-min+1)
	}
	return Stack{Item: entry.Item, Quantity: qty}, nil
}

// RollMany performs n independent rolls. Rolls against an empty table yield
// an empty result rather than an error so chest setup degrades gracefully.
func RollMany(table Table, rng *rand.Rand, n int) []Stack {
	stacks := make([]Stack, 0, n)
	for i := 0; i < n; i++ {
		stack, err := Roll(table, rng)
		if err != nil {
			break
		}
		stacks = append(stacks, stack)
	}
	return stacks
}

// File is the on-disk shape of a loot configuration, validated by the schema
// emitted from cmd/schema.
type File struct {
	Chests Table `json:"chests" jsonschema:"required"`
}

// LoadFile reads a loot table from a JSON config file.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loot: read %s: %w", path, err)
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("loot: parse %s: %w", path, err)
	}
	if len(file.Chests) == 0 {
		return nil, fmt.Errorf("loot: %s: %w", path, ErrEmptyTable)
	}
	return file.Chests, nil
}

// DefaultTable is used when no loot config file is provided.
func DefaultTable() Table {
	return Table{
		{Item: "pistol", Weight: 30, MinQuantity: 1, MaxQuantity: 1},
		{Item: "shotgun", Weight: 15, MinQuantity: 1, MaxQuantity: 1},
		{Item: "rifle", Weight: 10, MinQuantity: 1, MaxQuantity: 1},
		{Item: "ammo", Weight: 25, MinQuantity: 8, MaxQuantity: 24},
		{Item: "bandage", Weight: 15, MinQuantity: 1, MaxQuantity: 3},
		{Item: "medkit", Weight: 5, MinQuantity: 1, MaxQuantity: 1},
	}
}
