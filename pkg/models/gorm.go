package models

func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&User{}, // Must be first - other tables reference it
		&APIKey{},
		&Document{},
		&DocumentVersion{},
	}
}
