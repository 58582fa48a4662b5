package models

// Route is a named grouping of users (delivery area, cohort).
// ID is assigned by the store and treated as opaque.
type Route struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
