package model

// All returns every model registered for automigration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Gym{},
		&Invite{},
		&Class{},
		&Exercise{},
		&Routine{},
		&Wod{},
		&PersonalRecord{},
		&Ranking{},
		&Event{},
		&News{},
	}
}
