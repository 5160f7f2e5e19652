package table

// View is the floor-plan shape POS clients render. Width, Height and status
// are fixed client-side rendering defaults with no backing columns.
type View struct {
	ID     int64   `json:"Id"`
	Name   string  `json:"Name"`
	X      float64 `json:"X"`
	Y      float64 `json:"Y"`
	Width  int     `json:"Width"`
	Height int     `json:"Height"`
	Seats  int     `json:"Ile_osob"`
	Status string  `json:"status"`
	Level  int     `json:"Level"`
}

// SyncItem is one floor-plan element pushed by the layout editor.
type SyncItem struct {
	ID       *int64  `json:"Id"`
	Name     string  `json:"Name"`
	X        float64 `json:"X"`
	Y        float64 `json:"Y"`
	Rotation float64 `json:"Rotation"`
	Level    *int    `json:"Level"`
	Seats    *int    `json:"Ile_osob"`
}

const (
	defaultWidth  = 80
	defaultHeight = 160
	statusFree    = "wolny"
	defaultSeats  = 4
)
