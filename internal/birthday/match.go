package birthday

import (
	"time"

	"github.com/crucial707/birthday-service/internal/models"
)

// BirthdayOf returns the value of the first "birthday_date" metadata entry.
// Later entries with the same name are ignored. An empty value counts as absent.
func BirthdayOf(u models.User) (string, bool) {
	for _, m := range u.Metadata {
		if m.Name != models.MetadataBirthday {
			continue
		}
		if m.Value == "" {
			return "", false
		}
		return m.Value, true
	}
	return "", false
}

// IsBirthday reports whether the user's birthday falls on target's day and month.
func IsBirthday(u models.User, target time.Time, loc *time.Location) bool {
	value, ok := BirthdayOf(u)
	if !ok {
		return false
	}
	born, ok := ParseDate(value, loc)
	if !ok {
		return false
	}
	return SameDayOfYear(born, target)
}
