package menu

// Item is one menu position as POS clients see it. Category falls back to
// "Inne" for uncategorized dishes.
type Item struct {
	ID       int64   `json:"Id"`
	Name     string  `json:"Name"`
	Category string  `json:"Category"`
	Price    float64 `json:"Price"`
	IsActive bool    `json:"IsActive"`
}

// SyncItem is one element of the menu sync payload. Items absent from the
// payload are removed from the card.
type SyncItem struct {
	ID          *int64  `json:"Id"`
	Name        string  `json:"Name"`
	Category    *string `json:"Category"`
	Price       float64 `json:"Price"`
	Description *string `json:"Description"`
	Allergens   *string `json:"Allergens"`
}

// DefaultCategory labels dishes that carry no category of their own.
const DefaultCategory = "Inne"
