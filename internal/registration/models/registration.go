package models

import "strings"

// TrainingSeparator joins selected trainings into the stored column.
const TrainingSeparator = ", "

// Registration is one submitted lead.
//
// Invariants:
//   - ID is assigned by the store on Create and never changes
//   - Name, Email and Phone are non-empty
//   - SelectedTrainings is "" or a TrainingSeparator-joined list with no trailing separator
//   - CountryCity and CreatedAt are reserved columns; nothing populates them
type Registration struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	CountryCity       *string `json:"countryCity"`
	CreatedAt         *string `json:"createdAt"`
	ConnectedWith     *string `json:"connectedWith"`
	SelectedTrainings string  `json:"selectedTrainings"`
}

// JoinTrainings flattens the submitted list into the stored column value.
// Names containing the separator cannot be recovered after joining.
func JoinTrainings(trainings []string) string {
	if len(trainings) == 0 {
		return ""
	}
	return strings.Join(trainings, TrainingSeparator)
}

// Deref renders an optional column as a plain string, "" when unset.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
