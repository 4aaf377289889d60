package ui

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/adrg/xdg"
)

var themeFile = "sokoban/theme.json"

type InvalidTheme struct {
	err string
}

func (e *InvalidTheme) Error() string {
	return fmt.Sprintf("Theme error: %s", e.err)
}

// ThemeColors are tcell palette indexes
type ThemeColors struct {
	Floor    int `json:"floor"`
	Wall     int `json:"wall"`
	Box      int `json:"box"`
	Target   int `json:"target"`
	Actor    int `json:"actor"`
	Solved   int `json:"solved"`
	Ruler    int `json:"ruler"`
	Rejected int `json:"rejected"`
}

type ThemeSymbols struct {
	Floor       rune `json:"floor"`
	Wall        rune `json:"wall"`
	Box         rune `json:"box"`
	BoxOnTarget rune `json:"box_on_target"`
	Target      rune `json:"target"`
	ActorUp     rune `json:"actor_up"`
	ActorDown   rune `json:"actor_down"`
	ActorLeft   rune `json:"actor_left"`
	ActorRight  rune `json:"actor_right"`
}

type Theme struct {
	DrawWallBackground bool         `json:"draw_wall_bg"`
	Colors             ThemeColors  `json:"colors"`
	Symbols            ThemeSymbols `json:"symbols"`
}

var DefaultTheme = Theme{
	DrawWallBackground: true,
	Colors: ThemeColors{
		Floor:    234,
		Wall:     244,
		Box:      214,
		Target:   160,
		Actor:    45,
		Solved:   46,
		Ruler:    240,
		Rejected: 196,
	},
	Symbols: ThemeSymbols{
		Floor:       ' ',
		Wall:        '█',
		Box:         '■',
		BoxOnTarget: '▣',
		Target:      '◎',
		ActorUp:     '▲',
		ActorDown:   '▼',
		ActorLeft:   '◀',
		ActorRight:  '▶',
	},
}

// LoadTheme returns the theme stored in the xdg config directory, or the
// default theme when there is none
func LoadTheme() (*Theme, error) {
	path, err := xdg.SearchConfigFile(themeFile)
	if err != nil {
		theme := DefaultTheme
		return &theme, nil
	}
	return LoadThemeFile(path)
}

// LoadThemeFile reads a theme file over the defaults, so a file only needs the
// fields it changes
func LoadThemeFile(path string) (*Theme, error) {
	theme := DefaultTheme
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &theme); err != nil {
		return nil, &InvalidTheme{fmt.Sprintf("%s: %v", path, err)}
	}
	if err := theme.Validate(); err != nil {
		return nil, err
	}
	return &theme, nil
}

func (t *Theme) Validate() error {
	s := t.Symbols
	for _, r := range []rune{s.Floor, s.Wall, s.Box, s.BoxOnTarget, s.Target, s.ActorUp, s.ActorDown, s.ActorLeft, s.ActorRight} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidTheme{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	c := t.Colors
	for _, color := range []int{c.Floor, c.Wall, c.Box, c.Target, c.Actor, c.Solved, c.Ruler, c.Rejected} {
		if color < 0 || color > 255 {
			return &InvalidTheme{fmt.Sprintf("color %d is outside the 256 color palette", color)}
		}
	}
	return nil
}

// Save writes the theme to the xdg config directory
func (t *Theme) Save() error {
	path, err := xdg.ConfigFile(themeFile)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0664)
}
