package lister

// Viewport describes the list being scrolled.
type Viewport struct {
	ItemCount    int
	Scrolloff    int
	DisplayCount int // min(visible rows, ItemCount)
}

// MoveCursorline moves the cursor by delta rows, wrapping around both ends,
// and returns the new cursor and first visible index. The viewport slides
// only as far as needed to keep Scrolloff rows around the cursor.
func MoveCursorline(cursor, first, delta int, v Viewport) (int, int) {
	if v.DisplayCount == 0 {
		return 0, 0
	}
	for {
		next := cursor + delta
		if delta > 0 {
			if next >= v.ItemCount {
				cursor, first, delta = 0, 0, next-v.ItemCount
				continue
			}
			if next+v.Scrolloff <= first+v.DisplayCount-1 {
				return next, first
			}
			return next, min(next+v.Scrolloff-(v.DisplayCount-1), v.ItemCount-v.DisplayCount)
		}
		if next < 0 {
			cursor, first, delta = v.ItemCount-1, v.ItemCount-v.DisplayCount, next+1
			continue
		}
		if next-v.Scrolloff >= first {
			return next, first
		}
		return next, max(next-v.Scrolloff, 0)
	}
}
