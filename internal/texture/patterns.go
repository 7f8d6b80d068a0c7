package texture

// Checkerboard paints run×run squares alternating between on and off,
// starting with on at the bottom-left corner.
func Checkerboard(run int, on, off byte) Painter {
	if run < 1 {
		run = 1
	}
	return func(buf []byte, width, height int) {
		for y := 0; y < height; y++ {
			row := buf[y*width : (y+1)*width]
			for x := range row {
				if (x/run+y/run)%2 == 0 {
					row[x] = on
				} else {
					row[x] = off
				}
			}
		}
	}
}

// HollowRectangle paints a one texel border.
func HollowRectangle(border, fill byte) Painter {
	return func(buf []byte, width, height int) {
		for y := 0; y < height; y++ {
			row := buf[y*width : (y+1)*width]
			for x := range row {
				if x == 0 || x == width-1 || y == 0 || y == height-1 {
					row[x] = border
				} else {
					row[x] = fill
				}
			}
		}
	}
}

// Triangle paints a hollow rectangle with the upper-left half (x < y) filled.
func Triangle(on, off byte) Painter {
	hollow := HollowRectangle(on, off)
	return func(buf []byte, width, height int) {
		hollow(buf, width, height)
		for y := 0; y < height; y++ {
			for x := 0; x < y && x < width; x++ {
				buf[y*width+x] = on
			}
		}
	}
}

// Solid paints every texel with v.
func Solid(v byte) Painter {
	return func(buf []byte, width, height int) {
		for i := range buf[:width*height] {
			buf[i] = v
		}
	}
}

// Pattern returns a named procedural painter. Known names are
// "checkerboard", "hollow", "triangle" and "solid".
func Pattern(name string, run int, on, off byte) (Painter, bool) {
	switch name {
	case "checkerboard":
		return Checkerboard(run, on, off), true
	case "hollow":
		return HollowRectangle(on, off), true
	case "triangle":
		return Triangle(on, off), true
	case "solid":
		return Solid(on), true
	}
	return nil, false
}
