package models

import "time"

// ItemStatus is the three-state lost & found lifecycle. Searching items have
// no further modeled transition (matching a found item is a human process);
// Found items may be claimed once. Items are never deleted.
type ItemStatus string

const (
	ItemStatusSearching ItemStatus = "SEARCHING"
	ItemStatusFound     ItemStatus = "FOUND"
	ItemStatusClaimed   ItemStatus = "CLAIMED"
)

// ItemIntent selects the intake flow: the reporter lost the item, or the
// reporter has it and is waiting for its owner.
type ItemIntent string

const (
	IntentLost  ItemIntent = "lost"
	IntentFound ItemIntent = "found"
)

// Valid reports whether the intent is one of the two intake flows.
func (i ItemIntent) Valid() bool {
	return i == IntentLost || i == IntentFound
}

// Status maps the intake intent onto the initial lifecycle state.
func (i ItemIntent) Status() ItemStatus {
	if i == IntentFound {
		return ItemStatusFound
	}
	return ItemStatusSearching
}

// LostFoundItem is a reported lost or found item.
type LostFoundItem struct {
	ID          string     `db:"id" json:"id"`
	Reporter    Reporter   `json:"reporter"`
	Name        string     `db:"name" json:"name"`
	Category    string     `db:"category" json:"category"`
	LocationID  string     `db:"location_id" json:"location_id"`
	Description string     `db:"description" json:"description"`
	ImageURL    string     `db:"image_url" json:"image_url,omitempty"`
	Status      ItemStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// LostFoundFilter narrows item listings.
type LostFoundFilter struct {
	Status *ItemStatus
}
