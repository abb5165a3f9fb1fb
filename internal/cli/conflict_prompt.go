package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/sync"
)

// ConflictResolver handles interactive conflict resolution with users.
type ConflictResolver struct {
	reader *bufio.Reader
}

// NewConflictResolver creates a new interactive conflict resolver.
func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{
		reader: bufio.NewReader(os.Stdin),
	}
}

// Prompt asks the user how to resolve one conflict and returns the chosen
// strategy. An empty strategy means the user skipped the conflict.
func (cr *ConflictResolver) Prompt(conflict *sync.Conflict) (sync.Strategy, error) {
	fmt.Printf("\n--- Conflict: %s ---\n", conflict.Summary())
	cr.showFieldPreview(conflict)

	fmt.Println("\nHow would you like to resolve this conflict?")
	fmt.Println("  1. Keep the local version")
	fmt.Println("  2. Keep the remote version")
	fmt.Println("  3. Keep whichever was edited last")
	fmt.Println("  4. Merge both sides where possible")
	fmt.Println("  5. Skip this conflict")
	fmt.Println("  6. Show full local value")
	fmt.Println("  7. Show full remote value")
	fmt.Print("\nEnter choice [1-7]: ")

	for {
		response, err := cr.reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		choice, err := strconv.Atoi(strings.TrimSpace(response))
		if err != nil || choice < 1 || choice > 7 {
			fmt.Print("Invalid choice. Enter 1-7: ")
			continue
		}

		switch choice {
		case 1:
			return sync.StrategyAppWins, nil
		case 2:
			return sync.StrategyExternalWins, nil
		case 3:
			return sync.StrategyLastWriteWins, nil
		case 4:
			return sync.StrategyMerge, nil
		case 5:
			return "", nil
		case 6:
			cr.showFullValue("LOCAL", conflict.AppValue)
			fmt.Print("\nEnter choice [1-7]: ")
		case 7:
			cr.showFullValue("REMOTE", conflict.ExternalValue)
			fmt.Print("\nEnter choice [1-7]: ")
		}
	}
}

// ResolveAll prompts for every conflict in turn, returning the chosen
// strategy per conflict id. Skipped conflicts are absent from the map.
func (cr *ConflictResolver) ResolveAll(conflicts []*sync.Conflict) (map[string]sync.Strategy, error) {
	fmt.Printf("\n=== Conflict Resolution ===\n")
	fmt.Printf("Found %d conflict(s) that require resolution.\n", len(conflicts))

	chosen := make(map[string]sync.Strategy)
	for i, conflict := range conflicts {
		fmt.Printf("\n[%d of %d]\n", i+1, len(conflicts))
		strategy, err := cr.Prompt(conflict)
		if err != nil {
			return nil, fmt.Errorf("failed to get resolution for %s: %w", conflict.EntityID, err)
		}
		if strategy == "" {
			continue
		}
		chosen[conflict.ID] = strategy
	}
	return chosen, nil
}

// showFieldPreview displays the differing fields side by side.
func (cr *ConflictResolver) showFieldPreview(conflict *sync.Conflict) {
	fmt.Println(strings.Repeat("-", 50))
	for _, d := range conflict.ConflictFields {
		fmt.Printf("%s:\n", d.Field)
		fmt.Printf("  local:  %v\n", d.AppValue)
		fmt.Printf("  remote: %v\n", d.ExternalValue)
	}
	fmt.Println(strings.Repeat("-", 50))
}

// showFullValue displays one full side of the conflict.
func (cr *ConflictResolver) showFullValue(label string, snap model.Snapshot) {
	fmt.Printf("\n=== %s ===\n", label)
	switch {
	case snap.Task != nil:
		fmt.Printf("%+v\n", *snap.Task)
	case snap.TimeSlot != nil:
		fmt.Printf("%+v\n", *snap.TimeSlot)
	case snap.Objective != nil:
		fmt.Printf("%+v\n", *snap.Objective)
	case snap.Friend != nil:
		fmt.Printf("%+v\n", *snap.Friend)
	}
}
