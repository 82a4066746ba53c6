package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kaspit-backend/internal/config"
	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t         *testing.T
	r         *gin.Engine
	db        *gorm.DB
	svcs      *Services
	companyID uuid.UUID
	owner     string
}

func newAPI(t *testing.T) *api {
	db := testutil.NewDB(t)
	companyID, ownerID := testutil.Company(t, db)

	svcs := NewServices(db, config.DefaultBusiness(), zap.NewNop())
	t.Cleanup(svcs.Imports.Close)

	r := gin.New()
	r.Use(middleware.RequestLogger(zap.NewNop()))
	RegisterRoutes(r, svcs, testutil.Secret, zap.NewNop())

	return &api{t: t, r: r, db: db, svcs: svcs, companyID: companyID, owner: testutil.Token(t, ownerID)}
}

func (a *api) path(p string) string {
	return "/api/companies/" + a.companyID.String() + p
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCompanies(t *testing.T) {
	a := newAPI(t)
	user := testutil.Token(t, uuid.New())

	w := a.do(http.MethodPost, "/api/companies", user, gin.H{"name": "Acme", "vat_period": "monthly"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Company](t, w)
	assert.Equal(t, models.VATPeriodMonthly, created.VATPeriod)
	assert.Equal(t, "0.18", created.VATRate.String())

	w = a.do(http.MethodGet, "/api/companies", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct{ Items []models.Company }](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)

	// The new owner cannot see the fixture company.
	w = a.do(http.MethodGet, a.path(""), user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, "/api/companies", user, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMembersAndRoles(t *testing.T) {
	a := newAPI(t)
	viewerID := uuid.New()

	w := a.do(http.MethodPost, a.path("/members"), a.owner, gin.H{"user_id": viewerID, "role": "viewer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	viewer := testutil.Token(t, viewerID)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, a.path("/expenses"), viewer, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, a.path("/expenses"), viewer, gin.H{
		"date": "2026-03-05", "supplier_name": "Bezeq", "amount": "236",
	}).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, a.path("/members"), viewer, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPut, a.path(""), viewer, gin.H{"name": "x"}).Code)
}

func TestExpenses(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, a.path("/expenses"), a.owner, gin.H{
		"date": "2026-03-05", "supplier_name": "Bezeq", "description": "internet", "amount": "236",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	exp := decode[models.Expense](t, w)
	assert.Equal(t, "36.00", exp.VATAmount.StringFixed(2))
	assert.True(t, exp.VATDeductible)
	assert.Equal(t, models.PaymentPending, exp.Status)

	w = a.do(http.MethodGet, a.path("/expenses/"+exp.ID.String()), a.owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, a.path("/expenses?search=bezeq"), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Items []models.Expense
		Total int64
	}](t, w)
	assert.Equal(t, int64(1), page.Total)

	w = a.do(http.MethodPost, a.path("/expenses"), a.owner, gin.H{"date": "05/03/2026", "amount": "10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, a.path("/expenses"), a.owner, gin.H{"date": "2026-03-05", "amount": "-10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, a.path("/expenses/"+uuid.NewString()), a.owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, a.path("/expenses/nope"), a.owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodDelete, a.path("/expenses/"+exp.ID.String()), a.owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestReconciliationFlow(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, a.path("/expenses"), a.owner, gin.H{
		"date": "2026-03-05", "supplier_name": "Bezeq", "amount": "236",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	exp := decode[models.Expense](t, w)

	tx := models.BankTransaction{
		ID: uuid.New(), CompanyID: a.companyID, TransactionDate: testutil.Day(2026, 3, 6),
		Description: "BEZEQ", Amount: testutil.Dec("-236"), Hash: "h1", Status: models.StatusUnmatched,
	}
	require.NoError(t, a.db.Create(&tx).Error)
	txPath := a.path("/transactions/" + tx.ID.String())

	w = a.do(http.MethodGet, txPath+"/suggestions", a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), exp.ID.String())

	link := gin.H{"kind": "expense", "entry_id": exp.ID}
	w = a.do(http.MethodPost, txPath+"/link", a.owner, link)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, txPath+"/link", a.owner, link)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, txPath+"/link", a.owner, gin.H{"kind": "income", "entry_id": exp.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, txPath+"/unlink", a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, txPath+"/history", a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct{ Items []models.ReconciliationAudit }](t, w)
	assert.Len(t, history.Items, 2)

	w = a.do(http.MethodGet, a.path("/transactions?status=all"), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_more":false`)
}

func TestTransactionsPagingAndRescore(t *testing.T) {
	a := newAPI(t)

	var ids []uuid.UUID
	for i, desc := range []string{"ELECTRIC COMPANY", "CARD PURCHASE", "ATM"} {
		tx := models.BankTransaction{
			ID: uuid.New(), CompanyID: a.companyID, TransactionDate: testutil.Day(2026, 5, 1+i),
			Description: desc, Amount: testutil.Dec("-300"), Hash: desc, Status: models.StatusUnmatched,
		}
		require.NoError(t, a.db.Create(&tx).Error)
		ids = append(ids, tx.ID)
	}

	type page struct {
		Items      []models.BankTransaction
		NextCursor string `json:"next_cursor"`
		HasMore    bool   `json:"has_more"`
	}
	w := a.do(http.MethodGet, a.path("/transactions?limit=2"), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[page](t, w)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	w = a.do(http.MethodGet, a.path("/transactions?limit=2&cursor="+first.NextCursor), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[page](t, w)
	require.Len(t, second.Items, 1)
	assert.False(t, second.HasMore)
	assert.NotContains(t, []uuid.UUID{first.Items[0].ID, first.Items[1].ID}, second.Items[0].ID)

	w = a.do(http.MethodPost, a.path("/expenses"), a.owner, gin.H{
		"date": "2026-05-01", "supplier_name": "Electric Company", "amount": "300",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, a.path("/transactions/rescore"), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"transactions_rescored":3`)

	w = a.do(http.MethodGet, a.path("/transactions/"+ids[0].String()), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"suggested"`)

	txPath := a.path("/transactions/" + ids[2].String())
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, txPath+"/external", a.owner, nil).Code)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, txPath+"/restore", a.owner, nil).Code)
	w = a.do(http.MethodGet, txPath+"/history", a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct{ Items []models.ReconciliationAudit }](t, w)
	require.Len(t, history.Items, 2)
	assert.Equal(t, models.AuditRestore, history.Items[1].Action)
}

func TestImportUpload(t *testing.T) {
	a := newAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Date,Description,Amount\n05/03/2026,Bezeq,-236.00\n06/03/2026,Client,1180.00\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("mapping", `{"date":"Date","description":"Description","amount":"Amount"}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, a.path("/imports"), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.owner)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	started := decode[struct {
		BatchID string `json:"batch_id"`
		Total   int
	}](t, w)
	assert.Equal(t, 2, started.Total)
	a.svcs.Imports.Wait()

	w = a.do(http.MethodGet, a.path("/imports/"+started.BatchID), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	batch := decode[models.ImportBatch](t, w)
	assert.Equal(t, models.BatchCompleted, batch.Status)
	assert.Equal(t, 2, batch.ImportedCount)

	w = a.do(http.MethodGet, a.path("/transactions/stats"), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestReports(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, a.path("/reports/dashboard?year=2026&month=3"), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"open_transactions":0`)

	w = a.do(http.MethodGet, a.path("/reports/vat?year=2026&period=2"), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, a.path("/reports/vat?year=2026&period=9"), a.owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, a.path("/reports/cashflow?months=3&as_of=2026-04-15"), a.owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"balance_source":"ledger"`)

	w = a.do(http.MethodGet, a.path("/reports/cashflow?months=30"), a.owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
