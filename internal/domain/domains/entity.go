package domains

import "time"

// Privilege values offered by the UI. The column itself is free text.
const (
	PrivilegeFullAccess = "full access"
	PrivilegeRestricted = "restricted"
	PrivilegeDisabled   = "disabled"
)

var SuggestedPrivileges = []string{PrivilegeFullAccess, PrivilegeRestricted, PrivilegeDisabled}

const NameMaxLength = 255

type Domain struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Privilege string    `json:"privilege" db:"privilege"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type PrivilegeCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type Stats struct {
	Total           int64           `json:"total"`
	TotalPrivileges int64           `json:"total_privileges"`
	MostCommon      *PrivilegeCount `json:"most_common"`
}
