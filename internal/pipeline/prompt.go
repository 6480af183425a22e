package pipeline

import (
	"fmt"
	"strings"

	"github.com/louisbranch/turnforge/internal/storage"
)

// BuildNarrationPrompt assembles the prompt handed to the text-generation
// collaborator. It is a pure string function: every mechanical decision is
// final before this is called, and the instructions bind the narrator to
// describe, never re-decide, the committed outcomes.
func BuildNarrationPrompt(scene storage.SceneRecord, characters []storage.CharacterRecord, playerLines []string, result Result) string {
	var b strings.Builder

	b.WriteString("SCENE: " + scene.Name + "\n")
	if scene.Description != "" {
		b.WriteString(scene.Description + "\n")
	}
	if len(scene.Entities) > 0 {
		b.WriteString("PRESENT: ")
		for i, e := range scene.Entities {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.Name)
			if e.Hostile {
				b.WriteString(" (hostile)")
			}
		}
		b.WriteString("\n")
	}

	if len(characters) > 0 {
		b.WriteString("\nPARTY:\n")
		for _, ch := range characters {
			b.WriteString(fmt.Sprintf("- %s, level %d %s, %d/%d HP\n", ch.Name, ch.Level, ch.Class, ch.CurrentHP, ch.MaxHP))
		}
	}

	if len(playerLines) > 0 {
		b.WriteString("\nPLAYER ACTIONS (verbatim):\n")
		for _, line := range playerLines {
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n=== MECHANICAL OUTCOMES (ALREADY APPLIED) ===\n")
	if len(result.Changes) == 0 && result.Narrative == "" {
		b.WriteString("No mechanical changes this turn.\n")
	} else {
		if result.Narrative != "" {
			b.WriteString(result.Narrative + "\n")
		}
		for _, change := range result.Changes {
			b.WriteString(fmt.Sprintf("- %s %s: %s → %s (%s)\n",
				change.CharacterName, change.Field, change.Before, change.After, change.Description))
		}
	}
	b.WriteString("=== END MECHANICAL OUTCOMES ===\n")

	b.WriteString("\nINSTRUCTIONS: Narrate the scene continuing from these events. " +
		"The mechanical outcomes above are final and already committed to the record. " +
		"Describe them; do not re-decide, reverse, or soften them. " +
		"Anything marked as a FAILED attempt must be narrated as failing.")

	return b.String()
}
