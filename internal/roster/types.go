package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EmployeeRecord is one entry of the directory data resource.
type EmployeeRecord struct {
	ConsultantID  int         `json:"ConsultantID"`
	Name          string      `json:"Name"`
	CurrentRankID string      `json:"CurrentRankID"`
	BranchName    string      `json:"BranchName"`
	SectionName   string      `json:"SectionName"` // null in the source decodes to ""
	SectorName    string      `json:"SectorName"`
	TimeRank      LooseString `json:"TimeRank"`
	PhoneNumber   LooseString `json:"PhoneNumber"` // digits, no leading zero
}

// LooseString accepts either a JSON string or a JSON number and keeps its
// textual form. The data resource is hand-maintained and mixes both for
// seniority and phone numbers.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = LooseString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = LooseString(num.String())
	return nil
}

// String returns the textual value.
func (s LooseString) String() string {
	return string(s)
}
