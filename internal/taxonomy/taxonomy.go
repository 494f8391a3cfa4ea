// Package taxonomy loads the marketplace category tree and expands a main
// category into its leaf subcategories.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
)

// Category is one node of the marketplace category tree. Leaf nodes carry
// the query and shard used to build catalog URLs.
type Category struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Query  string     `json:"query"`
	Shard  string     `json:"shard"`
	Childs []Category `json:"childs"`
}

// Tree is the loaded category taxonomy.
type Tree struct {
	roots []Category
}

// Load reads the category tree from a JSON file.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var roots []Category
	if unmarshalErr := json.Unmarshal(data, &roots); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse categories file: %w", unmarshalErr)
	}

	return &Tree{roots: roots}, nil
}

// Leaves returns the leaf subcategories under the main category with the
// given ID, in tree order. An unknown ID yields an empty slice.
func (t *Tree) Leaves(mainID int) []Category {
	for _, root := range t.roots {
		if root.ID == mainID {
			var leaves []Category
			for _, child := range root.Childs {
				leaves = collectLeaves(child, leaves)
			}
			return leaves
		}
	}
	return nil
}

func collectLeaves(node Category, leaves []Category) []Category {
	if len(node.Childs) == 0 {
		return append(leaves, node)
	}
	for _, child := range node.Childs {
		leaves = collectLeaves(child, leaves)
	}
	return leaves
}
