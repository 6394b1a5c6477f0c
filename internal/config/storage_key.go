package config

type StorageKeyStruct struct{}

func NewStorageKeyStruct() *StorageKeyStruct {
	return &StorageKeyStruct{}
}

// These key names are part of the on-disk contract: changing them
// orphans every user's saved progress.

// Progress returns the storage key for the per-filter cursor positions
func (r *StorageKeyStruct) Progress() string {
	return "quiz_progress_v1"
}

// Records returns the storage key for the answer record map
func (r *StorageKeyStruct) Records() string {
	return "quiz_records_v1"
}

// Wrongbook returns the storage key for the wrong-answer id list
func (r *StorageKeyStruct) Wrongbook() string {
	return "quiz_wrongbook_v1"
}

// Prefs returns the storage key for the filter preferences
func (r *StorageKeyStruct) Prefs() string {
	return "quiz_prefs_v1"
}

var StorageKey = NewStorageKeyStruct()
