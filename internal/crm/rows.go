// internal/crm/rows.go
package crm

import (
	"strconv"

	"fieldsales-console/internal/models"
	"fieldsales-console/internal/visits"
	"fieldsales-console/pkg/columns"
)

// Row builders feed list controllers and exports. They add the derived
// columns the backend does not send.

func flatten(v interface{}) columns.Row {
	row, err := columns.Flatten(v)
	if err != nil {
		return columns.Row{}
	}
	return row
}

func VisitRow(v models.Visit) columns.Row {
	row := flatten(v)
	row["status"] = string(visits.Of(v))
	return row
}

func StoreRow(s models.Store) columns.Row {
	row := flatten(s)
	row["clientName"] = s.ClientName()
	row["clientType"] = s.EffectiveClientType()
	return row
}

func EmployeeRow(e models.Employee) columns.Row {
	row := flatten(e)
	row["name"] = e.FullName()
	return row
}

func TaskRow(t models.Task) columns.Row { return flatten(t) }
func ExpenseRow(e models.Expense) columns.Row { return flatten(e) }
func AttendanceRow(a models.Attendance) columns.Row { return flatten(a) }

func VisitID(v models.Visit) string { return strconv.FormatInt(v.ID, 10) }
func StoreID(s models.Store) string { return strconv.FormatInt(s.ID, 10) }
func EmployeeID(e models.Employee) string { return strconv.FormatInt(e.ID, 10) }
func TaskID(t models.Task) string { return strconv.FormatInt(t.ID, 10) }
func ExpenseID(e models.Expense) string { return strconv.FormatInt(e.ID, 10) }
func AttendanceID(a models.Attendance) string { return strconv.FormatInt(a.ID, 10) }
