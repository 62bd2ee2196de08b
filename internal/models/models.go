package models

// AllModels returns every model for database migration, ordered so that
// parents are created before their children.
func AllModels() []interface{} {
	return []interface{}{
		&MediaFile{},
		&Transcript{},
		&Segment{},
		&Word{},
		&EditMaskRecord{},
		&Job{},
	}
}
