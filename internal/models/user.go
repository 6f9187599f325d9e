package models

// Employee is a field or office staff record.
type Employee struct {
	ID               int64    `json:"id,omitempty"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	EmployeeID       string   `json:"employeeId,omitempty"`
	PrimaryContact   string   `json:"primaryContact,omitempty"`
	SecondaryContact string   `json:"secondaryContact,omitempty"`
	Email            string   `json:"email,omitempty"`
	Role             string   `json:"role,omitempty"`
	DepartmentName   string   `json:"departmentName,omitempty"`
	AddressLine1     string   `json:"addressLine1,omitempty"`
	AddressLine2     string   `json:"addressLine2,omitempty"`
	City             string   `json:"city,omitempty"`
	State            string   `json:"state,omitempty"`
	Country          string   `json:"country,omitempty"`
	Pincode          string   `json:"pincode,omitempty"`
	DateOfJoining    string   `json:"dateOfJoining,omitempty"`
	AssignedCity     []string `json:"assignedCity,omitempty"`
	UserDto          *UserDto `json:"userDto,omitempty"`
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// UserDto is the login credential pair maintained by the user-management API.
type UserDto struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Team is an office manager with the field officers they supervise in one city.
type Team struct {
	ID            int64      `json:"id,omitempty"`
	OfficeManager *Employee  `json:"officeManager,omitempty"`
	FieldOfficers []Employee `json:"fieldOfficers,omitempty"`
	City          string     `json:"city,omitempty"`
}

// HasMember reports whether employeeID is a field officer of the team.
func (t Team) HasMember(employeeID int64) bool {
	for _, fo := range t.FieldOfficers {
		if fo.ID == employeeID {
			return true
		}
	}
	return false
}
