// Package build gives every generator in internal/worldgen a shared
// vocabulary for assembling command-channel (C3) batches: fills, single
// blocks, signs, lecterns, and the forceload/spawn/broadcast primitives
// spec.md §6 reproduces bit-exactly. Nothing here talks to the network —
// Builder just accumulates command strings for internal/processor to hand
// to rcon.Client.Batch.
package build

import (
	"fmt"
	"strings"
)

// Builder accumulates command-channel lines in emission order. Order is
// load-bearing per spec.md §4.7 ("signs last") and §4.9 ("corner rail
// last") — callers must not reorder the slice once built.
type Builder struct {
	cmds []string
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Raw appends a literal command line, for the rare case a generator needs
// something none of the typed helpers cover.
func (b *Builder) Raw(cmd string) *Builder {
	b.cmds = append(b.cmds, cmd)
	return b
}

// Fill issues a single bulk fill command covering the axis-aligned box
// between the two corners (inclusive), in either corner order.
func (b *Builder) Fill(x1, y1, z1, x2, y2, z2 int, block string) *Builder {
	return b.Raw(fmt.Sprintf("fill %d %d %d %d %d %d %s", x1, y1, z1, x2, y2, z2, block))
}

// SetBlock places a single block, optionally with a bracketed block-state
// suffix already baked into block (e.g. "oak_stairs[facing=north]").
func (b *Builder) SetBlock(x, y, z int, block string) *Builder {
	return b.Raw(fmt.Sprintf("setblock %d %d %d %s", x, y, z, block))
}

// Forceload issues "forceload add|remove x1 z1 x2 z2".
func (b *Builder) Forceload(action string, x1, z1, x2, z2 int) *Builder {
	return b.Raw(fmt.Sprintf("forceload %s %d %d %d %d", action, x1, z1, x2, z2))
}

// SetWorldSpawn issues "setworldspawn x y z".
func (b *Builder) SetWorldSpawn(x, y, z int) *Builder {
	return b.Raw(fmt.Sprintf("setworldspawn %d %d %d", x, y, z))
}

// Tellraw broadcasts a plain-text message to every player (best-effort
// activity broadcasts per spec.md §4.3's post-hooks).
func (b *Builder) Tellraw(target, message string) *Builder {
	json := fmt.Sprintf(`{"text":"%s"}`, escapeJSON(message))
	return b.Raw(fmt.Sprintf("tellraw %s %s", target, json))
}

// Facing is one of the four wall-sign orientations.
type Facing string

const (
	North Facing = "north"
	South Facing = "south"
	East  Facing = "east"
	West  Facing = "west"
)

// WallSign places a four-line oak wall sign, reproducing spec.md §6's
// literal block-state format bit-exactly: quoted plain strings in a
// messages array, not wrapped JSON text components.
func (b *Builder) WallSign(x, y, z int, facing Facing, lines [4]string) *Builder {
	quoted := make([]string, 4)
	for i, line := range lines {
		quoted[i] = fmt.Sprintf(`'"%s"'`, escapeJSON(line))
	}
	state := fmt.Sprintf("oak_wall_sign[facing=%s]{front_text:{messages:[%s]}}", facing, strings.Join(quoted, ","))
	return b.SetBlock(x, y, z, state)
}

// ArchivedSign is WallSign with the mandatory leading red [Archived] line
// (spec.md §4.10 step 1), truncating the original lines by one to fit.
func (b *Builder) ArchivedSign(x, y, z int, facing Facing, lines [3]string) *Builder {
	quoted := make([]string, 4)
	quoted[0] = `'"§c[Archived]"'`
	for i, line := range lines {
		quoted[i+1] = fmt.Sprintf(`'"%s"'`, escapeJSON(line))
	}
	state := fmt.Sprintf("oak_wall_sign[facing=%s]{front_text:{messages:[%s]}}", facing, strings.Join(quoted, ","))
	return b.SetBlock(x, y, z, state)
}

// BookPage is one page of a lectern book: a flat run of styled text
// components rendered on that page.
type BookPage struct {
	Lines []BookLine
}

// BookLine is one line of a book page.
type BookLine struct {
	Text  string
	Bold  bool
	Color string
}

// Lectern issues a data-merge command placing a written book in a lectern
// block, reproducing spec.md §6's raw-SNBT page format bit-exactly (pages
// are text components, not quoted JSON strings).
func (b *Builder) Lectern(x, y, z int, title, author string, pages []BookPage) *Builder {
	var pageStrs []string
	for _, page := range pages {
		var comps []string
		for _, line := range page.Lines {
			comp := fmt.Sprintf(`{text:"%s"`, escapeJSON(line.Text))
			if line.Bold {
				comp += ",bold:true"
			}
			if line.Color != "" {
				comp += fmt.Sprintf(",color:\"%s\"", line.Color)
			}
			comp += "}"
			comps = append(comps, comp)
		}
		pageStrs = append(pageStrs, "["+strings.Join(comps, ",")+"]")
	}
	snbt := fmt.Sprintf(
		`{Book:{id:"minecraft:written_book",count:1,components:{"minecraft:written_book_content":{title:"%s",author:"%s",pages:[%s]}}}}`,
		escapeJSON(title), escapeJSON(author), strings.Join(pageStrs, ","),
	)
	return b.Raw(fmt.Sprintf("data merge block %d %d %d %s", x, y, z, snbt))
}

// Commands returns the accumulated command lines in emission order.
func (b *Builder) Commands() []string {
	return b.cmds
}

// Len reports how many commands have been accumulated so far.
func (b *Builder) Len() int {
	return len(b.cmds)
}

func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
