// internal/crm/expenses.go
package crm

import (
	"context"
	"strconv"
	"strings"
	"time"

	"fieldsales-console/internal/audit"
	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
)

// Expenses is the reimbursement service.
type Expenses struct {
	*Resource[models.Expense]
	now func() time.Time
}

func NewExpenses(deps Deps) *Expenses {
	return &Expenses{
		Resource: NewResource[models.Expense](deps, "/expense", validation.SchemaExpense),
		now:      time.Now,
	}
}

// Approve marks the expense approved by the current user.
func (e *Expenses) Approve(ctx context.Context, expense models.Expense) (*models.Expense, error) {
	return e.transition(ctx, expense, models.ApprovalApproved, "")
}

// Reject marks the expense rejected. A reason is required.
func (e *Expenses) Reject(ctx context.Context, expense models.Expense, reason string) (*models.Expense, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("rejection reason is required",
			map[string]string{"rejectionReason": "required"})
	}
	return e.transition(ctx, expense, models.ApprovalRejected, reason)
}

func (e *Expenses) transition(ctx context.Context, expense models.Expense, status, reason string) (*models.Expense, error) {
	if expense.ID == 0 {
		return nil, apperrors.NewValidationError("expense id is required", map[string]string{"id": "required"})
	}

	expense.ApprovalStatus = status
	expense.ApprovalDate = e.now().Format(listing.DateLayout)
	expense.RejectionReason = reason
	if c := e.deps.Credentials; c != nil {
		expense.ApprovedByID = c.EmployeeID()
		expense.ApprovedByName = c.Username()
	}

	id := strconv.FormatInt(expense.ID, 10)
	saved, err := e.Edit(ctx, id, expense)
	if err != nil {
		return nil, err
	}

	e.deps.record(ctx, e.logger, audit.Entry{
		Action:       audit.ActionUpdate,
		ResourceType: "expense",
		ResourceID:   id,
		Outcome:      "success",
		Details:      map[string]interface{}{"approvalStatus": status},
	})
	return saved, nil
}

// Pending filters expenses awaiting a decision.
func Pending(list []models.Expense) []models.Expense {
	out := make([]models.Expense, 0, len(list))
	for _, e := range list {
		if e.ApprovalStatus == "" || e.ApprovalStatus == models.ApprovalPending {
			out = append(out, e)
		}
	}
	return out
}
