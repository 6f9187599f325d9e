package main

import (
	"testing"

	"fieldsales-console/internal/common/auth"
	"fieldsales-console/internal/common/config"
	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitKeys(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"storeName", []string{"storeName"}},
		{" storeName , status,,city ", []string{"storeName", "status", "city"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, splitKeys(tt.raw))
		})
	}
}

func TestDateRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"open", "", "", false},
		{"from only", "2024-03-01", "", false},
		{"both", "2024-03-01", "2024-03-31", false},
		{"same day", "2024-03-01", "2024-03-01", false},
		{"bad from", "01/03/2024x", "", true},
		{"inverted", "2024-03-31", "2024-03-01", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := dateRange(tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from == "", r.From.IsZero())
			assert.Equal(t, tt.to == "", r.To.IsZero())
		})
	}
}

func TestEntityName(t *testing.T) {
	assert.Equal(t, "visits", entityName[models.Visit]())
	assert.Equal(t, "stores", entityName[models.Store]())
	assert.Equal(t, "employees", entityName[models.Employee]())
	assert.Equal(t, "tasks", entityName[models.Task]())
	assert.Equal(t, "expenses", entityName[models.Expense]())
	assert.Equal(t, "attendance", entityName[models.Attendance]())
	assert.Equal(t, "", entityName[models.Team]())
}

func TestValidatorFor(t *testing.T) {
	client := auth.NewClient(nil, "")

	assert.IsType(t, auth.TrustValidator{}, validatorFor("", client))
	assert.IsType(t, auth.TrustValidator{}, validatorFor(config.RehydrateTrust, client))
	assert.IsType(t, auth.ExpiryValidator{}, validatorFor(config.RehydrateExpiry, client))
	assert.IsType(t, auth.RemoteValidator{}, validatorFor(config.RehydrateRemote, client))
}
