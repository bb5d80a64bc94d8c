package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Canvas is the draw target handed to screens. Coordinates are terminal
// cells; anything outside the screen is clipped.
type Canvas struct {
	screen tcell.Screen
}

func NewCanvas(screen tcell.Screen) *Canvas {
	return &Canvas{screen: screen}
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (width, height int) {
	return c.screen.Size()
}

// Clear blanks every cell.
func (c *Canvas) Clear() {
	c.screen.Clear()
}

// Put draws a single glyph at (x, y). Wide glyphs also claim the cell to
// their right.
func (c *Canvas) Put(x, y int, glyph string, style tcell.Style) int {
	runes := []rune(glyph)
	if len(runes) == 0 {
		return 0
	}

	width := runewidth.StringWidth(glyph)
	if !c.inside(x, y) {
		return width
	}

	c.screen.SetContent(x, y, runes[0], runes[1:], style)
	if width == 2 && c.inside(x+1, y) {
		c.screen.SetContent(x+1, y, ' ', nil, style)
	}
	return width
}

// Text draws s starting at (x, y) and returns the number of cells used.
func (c *Canvas) Text(x, y int, s string, style tcell.Style) int {
	col := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if c.inside(col, y) {
			c.screen.SetContent(col, y, r, nil, style)
			if w == 2 && c.inside(col+1, y) {
				c.screen.SetContent(col+1, y, ' ', nil, style)
			}
		}
		col += w
	}
	return col - x
}

// Center draws s horizontally centered on row y.
func (c *Canvas) Center(y int, s string, style tcell.Style) {
	width, _ := c.Size()
	c.Text((width-runewidth.StringWidth(s))/2, y, s, style)
}

// Box draws a single-line border around the rectangle.
func (c *Canvas) Box(x, y, w, h int, style tcell.Style) {
	if w < 2 || h < 2 {
		return
	}
	for i := x + 1; i < x+w-1; i++ {
		c.set(i, y, tcell.RuneHLine, style)
		c.set(i, y+h-1, tcell.RuneHLine, style)
	}
	for j := y + 1; j < y+h-1; j++ {
		c.set(x, j, tcell.RuneVLine, style)
		c.set(x+w-1, j, tcell.RuneVLine, style)
	}
	c.set(x, y, tcell.RuneULCorner, style)
	c.set(x+w-1, y, tcell.RuneURCorner, style)
	c.set(x, y+h-1, tcell.RuneLLCorner, style)
	c.set(x+w-1, y+h-1, tcell.RuneLRCorner, style)
}

func (c *Canvas) set(x, y int, r rune, style tcell.Style) {
	if c.inside(x, y) {
		c.screen.SetContent(x, y, r, nil, style)
	}
}

func (c *Canvas) inside(x, y int) bool {
	width, height := c.screen.Size()
	return x >= 0 && y >= 0 && x < width && y < height
}
