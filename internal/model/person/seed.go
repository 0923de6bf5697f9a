package person

import "time"

// Seed returns the people the directory starts with, all stamped with now.
func Seed(now time.Time) []Person {
	ts := FormatTimestamp(now)
	return []Person{
		{FName: "Doug", LName: "Farrell", Timestamp: ts},
		{FName: "Kent", LName: "Brockman", Timestamp: ts},
		{FName: "Bunny", LName: "Easter", Timestamp: ts},
	}
}
