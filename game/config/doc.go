// Package config provides the level catalogue for the forklift game.
//
// The config package handles:
//   - Loading levels from text, JSON and YAML files
//   - Transparent zstd decompression of ".zst" level files
//   - JSON schema validation of JSON level documents
//   - Default level management and level discovery
//
// Level Formats:
//
// The text format is the native one:
//
//	12
//	6
//	7
//	#######
//	# #X X#
//	#E#   #
//	#  C#C#
//	#     #
//	#######
//
// The first three lines are the maximum energy, the row count and the column
// count. JSON and YAML documents carry the same fields (max_energy, rows,
// columns, layout) plus an optional name and description.
//
// A level is addressed by its file stem: "classic" resolves to classic.txt,
// classic.json, classic.yaml or classic.yml (each optionally ending in .zst),
// in that order.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("classic")
//	levels, err := manager.ListLevels()
package config
