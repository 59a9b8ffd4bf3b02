package domain

// InventoryItem is a named pantry entry. Name is the storage key and never changes.
type InventoryItem struct {
	Name        string `json:"name" yaml:"name"`
	Quantity    int    `json:"quantity" yaml:"quantity"`
	Description string `json:"description" yaml:"description"`
}

// Record is the persisted value stored under an item name.
type Record struct {
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

func (r Record) Item(name string) InventoryItem {
	return InventoryItem{Name: name, Quantity: r.Quantity, Description: r.Description}
}

func (i InventoryItem) Record() Record {
	return Record{Quantity: i.Quantity, Description: i.Description}
}
