package models

import "github.com/google/uuid"

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// AllModels lists every persisted model, in dependency order, for test schemas.
func AllModels() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Address{},
		&Order{},
		&OrderItem{},
		&ProviderCredential{},
	}
}
