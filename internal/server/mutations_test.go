package server

import (
	"encoding/json"
	"net/http"
	"testing"

	apperrors "fieldsales-console/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storePage = `{"content":[{"id":2,"storeName":"Mehta Stores","city":"Nagpur"}],"totalElements":1,"last":true}`

func mutationRoutes(extra map[string]reply) map[string]reply {
	routes := map[string]reply{
		"GET /store/filteredValues":         {body: storePage},
		"DELETE /store/deleteById":          {body: ""},
		"PUT /store/bulkUpdateFieldOfficer": {body: ""},
		"GET /store/getById":                {body: `{"id":4,"storeName":"Sharma Traders","city":"Pune","intent":7,"brandsInUse":["Acme"]}`},
		"PUT /store/edit":                   {body: `{"id":4,"storeName":"Sharma Traders","city":"Mumbai","intent":7,"brandsInUse":["Acme"]}`},
		"POST /user/manage/create":          {body: ""},
		"DELETE /employee/deleteById":       {body: ""},
		"DELETE /user/manage/delete":        {body: ""},
	}
	for k, v := range adminRoutes {
		routes[k] = v
	}
	for k, v := range extra {
		routes[k] = v
	}
	return routes
}

// ==========================
// Store Delete Tests
// ==========================

func TestDeleteStore(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		extra       map[string]reply
		wantStatus  int
		wantDeletes int
		wantFetches int
	}{
		{"confirmed", "/api/stores/1?confirm=true", nil, http.StatusOK, 1, 1},
		{"not confirmed", "/api/stores/1", nil, http.StatusPreconditionRequired, 0, 0},
		{"declined", "/api/stores/1?confirm=false", nil, http.StatusPreconditionRequired, 0, 0},
		{
			"backend refuses",
			"/api/stores/1?confirm=true",
			map[string]reply{"DELETE /store/deleteById": {status: http.StatusNotFound, body: "no store 1"}},
			http.StatusNotFound, 1, 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, mutationRoutes(tt.extra), nil)
			login(t, f)

			rec := f.do(t, http.MethodDelete, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Len(t, f.backend.calls("DELETE /store/deleteById"), tt.wantDeletes)
			assert.Len(t, f.backend.calls("GET /store/filteredValues"), tt.wantFetches)
		})
	}
}

func TestDeleteStore_AnswersWithRefetchedPage(t *testing.T) {
	f := newFixture(t, mutationRoutes(nil), nil)
	login(t, f)

	rec := f.do(t, http.MethodDelete, "/api/stores/1?confirm=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"id=1"}, f.backend.calls("DELETE /store/deleteById"))

	data := dataMap(t, decode(t, rec))
	assert.Equal(t, float64(1), data["totalCount"])
	assert.Equal(t, float64(1), data["page"])
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Mehta Stores", items[0].(map[string]interface{})["storeName"])
}

func TestDeleteStore_RequiresSession(t *testing.T) {
	f := newFixture(t, mutationRoutes(nil), nil)

	rec := f.do(t, http.MethodDelete, "/api/stores/1?confirm=true", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.backend.calls("DELETE /store/deleteById"))
}

// ==========================
// Store Reassign Tests
// ==========================

func TestReassignStores(t *testing.T) {
	f := newFixture(t, mutationRoutes(nil), nil)
	login(t, f)

	rec := f.do(t, http.MethodPost, "/api/stores/reassign", `{"storeIds":[2,1],"fieldOfficerId":9}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sent := f.backend.sent("PUT /store/bulkUpdateFieldOfficer")
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"storeIds":[1,2],"fieldOfficerId":9}`, sent[0])
	assert.Len(t, f.backend.calls("GET /store/filteredValues"), 1)
	assert.Equal(t, float64(1), dataMap(t, decode(t, rec))["totalCount"])
}

func TestReassignStores_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		extra      map[string]reply
		wantStatus int
		wantReason apperrors.ErrorCode
		wantSent   int
	}{
		{"malformed body", `{`, nil, http.StatusBadRequest, "", 0},
		{"no field officer", `{"storeIds":[1]}`, nil, http.StatusBadRequest, apperrors.ErrCodeValidation, 0},
		{"empty selection", `{"storeIds":[],"fieldOfficerId":9}`, nil, http.StatusBadRequest, apperrors.ErrCodeValidation, 0},
		{
			"backend fails",
			`{"storeIds":[1],"fieldOfficerId":9}`,
			map[string]reply{"PUT /store/bulkUpdateFieldOfficer": {status: http.StatusInternalServerError, body: "db down"}},
			http.StatusBadGateway, apperrors.ErrCodeAPI, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, mutationRoutes(tt.extra), nil)
			login(t, f)

			rec := f.do(t, http.MethodPost, "/api/stores/reassign", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantReason != "" {
				assert.Equal(t, string(tt.wantReason), decode(t, rec).Error.Reason)
			}
			assert.Len(t, f.backend.sent("PUT /store/bulkUpdateFieldOfficer"), tt.wantSent)
		})
	}
}

// ==========================
// Store Edit Tests
// ==========================

func TestEditStore_MergesBodyOverLoadedRecord(t *testing.T) {
	f := newFixture(t, mutationRoutes(nil), nil)
	login(t, f)

	rec := f.do(t, http.MethodPut, "/api/stores/4", `{"id":99,"city":"Mumbai"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Mumbai", dataMap(t, decode(t, rec))["city"])

	assert.Equal(t, []string{"id=4"}, f.backend.calls("GET /store/getById"))
	assert.Equal(t, []string{"id=4"}, f.backend.calls("PUT /store/edit"))

	sent := f.backend.sent("PUT /store/edit")
	require.Len(t, sent, 1)
	var saved map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(sent[0]), &saved))
	assert.Equal(t, float64(4), saved["id"], "the path id wins")
	assert.Equal(t, "Sharma Traders", saved["storeName"])
	assert.Equal(t, "Mumbai", saved["city"])
	assert.Equal(t, float64(7), saved["intent"])
	assert.Equal(t, []interface{}{"Acme"}, saved["brandsInUse"])
}

func TestEditStore_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		extra      map[string]reply
		wantStatus int
		wantSaves  int
	}{
		{"malformed body", `{`, nil, http.StatusBadRequest, 0},
		{"not an object", `["city"]`, nil, http.StatusBadRequest, 0},
		{"wrong field type", `{"intent":"high"}`, nil, http.StatusBadRequest, 0},
		{
			"missing store",
			`{"city":"Mumbai"}`,
			map[string]reply{"GET /store/getById": {status: http.StatusNotFound, body: "no store 4"}},
			http.StatusNotFound, 0,
		},
		{
			"save rejected",
			`{"city":"Mumbai"}`,
			map[string]reply{"PUT /store/edit": {status: http.StatusBadRequest, body: "city is locked"}},
			http.StatusBadRequest, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, mutationRoutes(tt.extra), nil)
			login(t, f)

			rec := f.do(t, http.MethodPut, "/api/stores/4", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Len(t, f.backend.calls("PUT /store/edit"), tt.wantSaves)
		})
	}
}

// ==========================
// Employee Delete Tests
// ==========================

func TestDeleteEmployee(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		extra      map[string]reply
		wantStatus int
		wantReason apperrors.ErrorCode
		wantUsers  int
	}{
		{"record and login", "/api/employees/5?confirm=true&username=neha", nil, http.StatusOK, "", 1},
		{"record only", "/api/employees/5?confirm=true", nil, http.StatusOK, "", 0},
		{"not confirmed", "/api/employees/5?username=neha", nil, http.StatusPreconditionRequired, "", 0},
		{
			"login left behind",
			"/api/employees/5?confirm=true&username=neha",
			map[string]reply{"DELETE /user/manage/delete": {status: http.StatusInternalServerError, body: "boom"}},
			http.StatusInternalServerError, apperrors.ErrCodePartialFailure, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, mutationRoutes(tt.extra), nil)
			login(t, f)

			rec := f.do(t, http.MethodDelete, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantReason != "" {
				assert.Equal(t, string(tt.wantReason), decode(t, rec).Error.Reason)
			}
			assert.Len(t, f.backend.calls("DELETE /user/manage/delete"), tt.wantUsers)
		})
	}
}

// ==========================
// Register Tests
// ==========================

func TestRegister(t *testing.T) {
	f := newFixture(t, mutationRoutes(nil), nil)
	login(t, f)

	rec := f.do(t, http.MethodPost, "/api/session/register",
		`{"username":" neha ","password":"pw","confirmPassword":"pw","role":"FIELD_OFFICER","employeeId":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	sent := f.backend.sent("POST /user/manage/create")
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"username":"neha","password":"pw","role":"FIELD_OFFICER","employeeId":5}`, sent[0])
	assert.Equal(t, "tok-admin", f.store.Token(), "registering keeps the admin signed in")
}

func TestRegister_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"password mismatch", `{"username":"neha","password":"pw","confirmPassword":"px","role":"FIELD_OFFICER"}`, http.StatusBadRequest},
		{"missing username", `{"password":"pw","confirmPassword":"pw","role":"FIELD_OFFICER"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, mutationRoutes(nil), nil)
			login(t, f)

			rec := f.do(t, http.MethodPost, "/api/session/register", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Empty(t, f.backend.calls("POST /user/manage/create"))
		})
	}
}

func TestRegister_AdminOnly(t *testing.T) {
	f := newFixture(t, map[string]reply{
		"POST /user/token":                 {body: "tok-fo"},
		"GET /employee/user/getByUsername": {body: `{"id":5,"role":"FIELD_OFFICER"}`},
		"POST /user/manage/create":         {body: ""},
	}, nil)
	rec := f.do(t, http.MethodPost, "/api/session/login", `{"username":"ravi","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/session/register",
		`{"username":"neha","password":"pw","confirmPassword":"pw","role":"FIELD_OFFICER"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.backend.calls("POST /user/manage/create"))
}
