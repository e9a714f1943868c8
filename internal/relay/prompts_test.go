package relay

import (
	"strings"
	"testing"
)

func TestBuildUnderstandInstructionStyleClause(t *testing.T) {
	got := BuildUnderstandInstruction("watercolor", "")
	if !strings.HasPrefix(got, "User only accepts this style: watercolor\n\n") {
		t.Fatalf("expected style clause first, got %q", got[:60])
	}
	if !strings.HasSuffix(got, analysisInstruction) {
		t.Fatal("expected base instruction after the style clause")
	}

	for _, style := range []string{"", DefaultStyle, "   "} {
		if got := BuildUnderstandInstruction(style, ""); got != analysisInstruction {
			t.Fatalf("style %q should not add a clause", style)
		}
	}
}

func TestBuildUnderstandInstructionAppendsNotesVerbatim(t *testing.T) {
	notes := "make the cat orange  "
	got := BuildUnderstandInstruction("", notes)

	want := analysisInstruction + "\n\nSupplementary notes from the user: " + notes
	if got != want {
		t.Fatalf("unexpected instruction tail: %q", got[len(analysisInstruction):])
	}
}

func TestBuildUnderstandInstructionStyleAndNotes(t *testing.T) {
	got := BuildUnderstandInstruction("anime", "two birds")

	styleAt := strings.Index(got, "User only accepts this style: anime")
	baseAt := strings.Index(got, analysisInstruction)
	notesAt := strings.Index(got, "Supplementary notes from the user: two birds")
	if styleAt != 0 || baseAt <= styleAt || notesAt <= baseAt {
		t.Fatalf("unexpected clause order: style=%d base=%d notes=%d", styleAt, baseAt, notesAt)
	}
}
