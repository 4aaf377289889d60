package engine

import (
	"errors"
	"testing"
)

func TestCellKindLayers(t *testing.T) {
	tests := []struct {
		kind     CellKind
		terrain  bool
		entity   bool
		char     rune
		expected string
	}{
		{Empty, true, false, ' ', "empty"},
		{Wall, true, false, '#', "wall"},
		{Target, true, false, 'X', "target"},
		{Box, false, true, 'C', "box"},
		{Actor, false, true, 'E', "actor"},
	}

	for _, test := range tests {
		if string(test.kind) != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, string(test.kind))
		}
		if test.kind.IsTerrain() != test.terrain {
			t.Errorf("%s: IsTerrain() = %v, want %v", test.kind, test.kind.IsTerrain(), test.terrain)
		}
		if test.kind.IsEntity() != test.entity {
			t.Errorf("%s: IsEntity() = %v, want %v", test.kind, test.kind.IsEntity(), test.entity)
		}
		if test.kind.Char() != test.char {
			t.Errorf("%s: Char() = %q, want %q", test.kind, test.kind.Char(), test.char)
		}

		kind, err := KindFromChar(test.char)
		if err != nil {
			t.Fatalf("KindFromChar(%q) failed: %v", test.char, err)
		}
		if kind != test.kind {
			t.Errorf("KindFromChar(%q) = %s, want %s", test.char, kind, test.kind)
		}
	}
}

func TestKindFromChar_Unknown(t *testing.T) {
	for _, ch := range []rune{'R', '.', '*', '+', 'e'} {
		if _, err := KindFromChar(ch); !errors.Is(err, ErrUnknownCell) {
			t.Errorf("KindFromChar(%q): expected ErrUnknownCell, got %v", ch, err)
		}
	}
}

func TestCoordinateStep(t *testing.T) {
	origin := Coordinate{Row: 2, Column: 3}

	tests := []struct {
		direction Direction
		expected  Coordinate
	}{
		{Up, Coordinate{Row: 1, Column: 3}},
		{Down, Coordinate{Row: 3, Column: 3}},
		{Left, Coordinate{Row: 2, Column: 2}},
		{Right, Coordinate{Row: 2, Column: 4}},
		{Direction("sideways"), origin},
	}

	for _, test := range tests {
		if got := origin.Step(test.direction); got != test.expected {
			t.Errorf("Step(%s) = %s, want %s", test.direction, got, test.expected)
		}
	}

	if origin.String() != "(2,3)" {
		t.Errorf("Expected (2,3), got %s", origin.String())
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input    string
		expected Direction
		wantErr  bool
	}{
		{"up", Up, false},
		{"DOWN", Down, false},
		{" Left ", Left, false},
		{"right", Right, false},
		{"north", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		got, err := ParseDirection(test.input)
		if test.wantErr {
			if !errors.Is(err, ErrUnknownDirection) {
				t.Errorf("ParseDirection(%q): expected ErrUnknownDirection, got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDirection(%q) failed: %v", test.input, err)
		}
		if got != test.expected {
			t.Errorf("ParseDirection(%q) = %s, want %s", test.input, got, test.expected)
		}
	}
}

func TestDirectionBetween(t *testing.T) {
	from := Coordinate{Row: 3, Column: 3}

	tests := []struct {
		name     string
		to       Coordinate
		expected Direction
		legal    bool
	}{
		{"up", Coordinate{Row: 2, Column: 3}, Up, true},
		{"down", Coordinate{Row: 4, Column: 3}, Down, true},
		{"left", Coordinate{Row: 3, Column: 2}, Left, true},
		{"right", Coordinate{Row: 3, Column: 4}, Right, true},
		{"same cell", Coordinate{Row: 3, Column: 3}, "", false},
		{"diagonal", Coordinate{Row: 2, Column: 2}, "", false},
		{"two cells away", Coordinate{Row: 3, Column: 5}, "", false},
		{"far away", Coordinate{Row: 10, Column: -4}, "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := DirectionBetween(from, test.to)
			if !test.legal {
				if !errors.Is(err, ErrIllegalMove) {
					t.Errorf("Expected ErrIllegalMove, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestOutcomeTerminal(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		terminal bool
	}{
		{Won, true},
		{Lost, true},
		{Ongoing, false},
		{Rejected, false},
	}

	for _, test := range tests {
		if test.outcome.Terminal() != test.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", test.outcome, test.outcome.Terminal(), test.terminal)
		}
	}
}

func TestForklift(t *testing.T) {
	f := NewForklift(2)
	f.DecreaseEnergy()
	f.DecreaseEnergy()
	f.DecreaseEnergy()
	if f.Energy() != -1 {
		t.Errorf("Expected energy -1, got %d", f.Energy())
	}
	f.IncreaseEnergy()
	if f.Energy() != 0 {
		t.Errorf("Expected energy 0, got %d", f.Energy())
	}
}
