package models

// MetadataBirthday is the metadata entry name holding a user's birthday.
const MetadataBirthday = "birthday_date"

// MetadataEntry is one tagged record in a user's metadata list.
// Value holds a calendar date for date-typed entries and may be empty.
type MetadataEntry struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User belongs to exactly one route, referenced by RouteID.
type User struct {
	ID        string          `json:"id"`
	RouteID   string          `json:"route_id"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	CellPhone string          `json:"cell_phone"`
	Country   string          `json:"country"`
	Metadata  []MetadataEntry `json:"metadata"`
}

// FullName joins first and last name with a single space.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
