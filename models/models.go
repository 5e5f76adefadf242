package models

// All returns every persisted model in migration order
func All() []any {
	return []any{
		&SequenceCounter{},
		&Staff{},
		&InventoryItem{},
		&InventoryRequest{},
		&Patient{},
		&Appointment{},
		&Radiograph{},
		&Feedback{},
		&Inquiry{},
	}
}
