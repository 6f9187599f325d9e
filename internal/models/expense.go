package models

const (
	ApprovalPending  = "Pending"
	ApprovalApproved = "Approved"
	ApprovalRejected = "Rejected"
)

// Expense is a reimbursement claim by an employee.
type Expense struct {
	ID              int64   `json:"id,omitempty"`
	EmployeeID      int64   `json:"employeeId"`
	EmployeeName    string  `json:"employeeName,omitempty"`
	ExpenseDate     string  `json:"expenseDate"`
	Type            string  `json:"type"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description,omitempty"`
	ApprovalStatus  string  `json:"approvalStatus,omitempty"`
	ApprovalDate    string  `json:"approvalDate,omitempty"`
	ApprovedByID    int64   `json:"approvedById,omitempty"`
	ApprovedByName  string  `json:"approvedByName,omitempty"`
	RejectionReason string  `json:"rejectionReason,omitempty"`
}

// Attendance is one day of an employee's field log.
type Attendance struct {
	ID           int64   `json:"id,omitempty"`
	EmployeeID   int64   `json:"employeeId"`
	EmployeeName string  `json:"employeeName,omitempty"`
	Date         string  `json:"checkinDate"`
	CheckinTime  string  `json:"checkinTime,omitempty"`
	CheckoutTime string  `json:"checkoutTime,omitempty"`
	VisitCount   int     `json:"visitCount,omitempty"`
	Distance     float64 `json:"totalDistanceTravelled,omitempty"`
	Status       string  `json:"attendanceStatus,omitempty"`
}

// Allowance holds the per-role payroll settings.
type Allowance struct {
	ID                int64   `json:"id,omitempty"`
	EmployeeID        int64   `json:"employeeId,omitempty"`
	Role              string  `json:"role,omitempty"`
	TravelAllowance   float64 `json:"travelAllowance"`
	DearnessAllowance float64 `json:"dearnessAllowance"`
	FullMonthSalary   float64 `json:"fullMonthSalary"`
	CarRatePerKm      float64 `json:"carRatePerKm"`
	BikeRatePerKm     float64 `json:"bikeRatePerKm"`
}
