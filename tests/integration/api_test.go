package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "invest-backoffice/internal/adapter/http/handler"
	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "integration-test-secret-key-0123456789"

type apiFixture struct {
	*fixture
	router   *gin.Engine
	tokenSvc ports.TokenService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture()
	tokenSvc := service.NewJWTTokenService(testJWTSecret, time.Hour, "invest-backoffice")

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WithdrawalSvc:  f.withdrawalSvc,
		Ledger:         f.ledgerSvc,
		ReportingSvc:   f.reportingSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: nil,
		Auditor:        f.auditSvc,
		Logger:         zerolog.Nop(),
	})

	return &apiFixture{fixture: f, router: router, tokenSvc: tokenSvc}
}

func (f *apiFixture) operatorToken(t *testing.T, operatorID uuid.UUID) string {
	t.Helper()
	token, _, err := f.tokenSvc.Generate(operatorID, "ops.nguyen")
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data envelope: %s", w.Body.String())
	return data
}

func TestAPI_RequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/withdrawals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_001")
}

func TestAPI_HealthCheck(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAPI_FullWithdrawalLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	operatorID := uuid.New()
	token := f.operatorToken(t, operatorID)
	userID := f.seedUser(t, 100000)

	// Create a withdrawal request on behalf of the user.
	w := f.do(t, http.MethodPost, "/api/v1/withdrawals", token, map[string]any{
		"user_id":   userID.String(),
		"amount":    40000,
		"bank_info": "VCB 00123456789",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData(t, w)
	requestID := created["id"].(string)
	assert.Equal(t, "pending", created["status"])

	// Creating the request does not touch the balance.
	w = f.do(t, http.MethodGet, "/api/v1/wallets/"+userID.String()+"/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100000), decodeData(t, w)["balance"])

	// pending -> confirmed
	w = f.do(t, http.MethodPost, "/api/v1/withdrawals/"+requestID+"/transition", token, map[string]any{
		"target_status": "confirmed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// confirmed -> scheduled debits the wallet.
	w = f.do(t, http.MethodPost, "/api/v1/withdrawals/"+requestID+"/transition", token, map[string]any{
		"target_status": "scheduled",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, false, data["auto_rejected"])
	assert.Equal(t, "scheduled", data["request"].(map[string]interface{})["status"])

	w = f.do(t, http.MethodGet, "/api/v1/wallets/"+userID.String()+"/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(60000), decodeData(t, w)["balance"])

	// scheduled -> paid
	w = f.do(t, http.MethodPost, "/api/v1/withdrawals/"+requestID+"/transition", token, map[string]any{
		"target_status": "paid",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The ledger shows the debit tied to the request.
	w = f.do(t, http.MethodGet, "/api/v1/wallets/"+userID.String()+"/ledger", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), requestID)
	assert.Contains(t, w.Body.String(), "debit")

	// Every transition was notified and audited.
	assert.Len(t, f.notifier.all(), 3)
	assert.Len(t, f.auditRepo.byAction(domain.AuditActionConfirm), 1)
	assert.Len(t, f.auditRepo.byAction(domain.AuditActionApprove), 1)
	assert.Len(t, f.auditRepo.byAction(domain.AuditActionMarkPaid), 1)

	// Dashboard reflects the payout.
	w = f.do(t, http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeData(t, w)
	assert.Equal(t, float64(1), stats["paid"])
	assert.Equal(t, float64(40000), stats["total_paid_out"])
}

func TestAPI_RejectAfterScheduling_Refunds(t *testing.T) {
	f := newAPIFixture(t)
	token := f.operatorToken(t, uuid.New())
	userID := f.seedUser(t, 100000)
	wdr := f.createWithdrawal(t, userID, 40000)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/withdrawals/%s/transition", wdr.ID), token, map[string]any{
		"target_status": "scheduled",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/withdrawals/%s/transition", wdr.ID), token, map[string]any{
		"target_status": "rejected",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	request := decodeData(t, w)["request"].(map[string]interface{})
	assert.Equal(t, "rejected", request["status"])
	assert.Equal(t, true, request["refunded"])

	// The debit was compensated in full.
	w = f.do(t, http.MethodGet, "/api/v1/wallets/"+userID.String()+"/balance", token, nil)
	assert.Equal(t, float64(100000), decodeData(t, w)["balance"])
}

func TestAPI_EarlyReject_NoRefund(t *testing.T) {
	f := newAPIFixture(t)
	token := f.operatorToken(t, uuid.New())
	userID := f.seedUser(t, 100000)
	wdr := f.createWithdrawal(t, userID, 40000)

	// Rejecting a pending request never touched the balance, so no credit.
	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/withdrawals/%s/transition", wdr.ID), token, map[string]any{
		"target_status": "rejected",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	request := decodeData(t, w)["request"].(map[string]interface{})
	assert.Equal(t, "rejected", request["status"])
	assert.Equal(t, false, request["refunded"])

	w = f.do(t, http.MethodGet, "/api/v1/wallets/"+userID.String()+"/balance", token, nil)
	assert.Equal(t, float64(100000), decodeData(t, w)["balance"])
	assert.Equal(t, 0, f.ledgerRepo.countByUser(userID, domain.LedgerEntryDebit))
}

func TestAPI_ApproveWithInsufficientFunds_AutoRejects(t *testing.T) {
	f := newAPIFixture(t)
	token := f.operatorToken(t, uuid.New())
	userID := f.seedUser(t, 40000)
	wdr := f.createWithdrawal(t, userID, 50000)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/withdrawals/%s/transition", wdr.ID), token, map[string]any{
		"target_status": "scheduled",
	})
	// Not an error: the transition lands on rejected instead of scheduled.
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, true, data["auto_rejected"])
	assert.Contains(t, data["reason"], "insufficient funds")
	assert.Equal(t, "rejected", data["request"].(map[string]interface{})["status"])

	// No partial debit leaked.
	w = f.do(t, http.MethodGet, "/api/v1/wallets/"+userID.String()+"/balance", token, nil)
	assert.Equal(t, float64(40000), decodeData(t, w)["balance"])
	assert.Equal(t, 0, f.ledgerRepo.countByUser(userID, domain.LedgerEntryDebit))
}

func TestAPI_TerminalStateIsImmutable(t *testing.T) {
	f := newAPIFixture(t)
	token := f.operatorToken(t, uuid.New())
	userID := f.seedUser(t, 100000)
	wdr := f.createWithdrawal(t, userID, 40000)

	for _, target := range []string{"scheduled", "paid"} {
		w := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/withdrawals/%s/transition", wdr.ID), token, map[string]any{
			"target_status": target,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	for _, target := range []string{"rejected", "scheduled", "confirmed"} {
		w := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/withdrawals/%s/transition", wdr.ID), token, map[string]any{
			"target_status": target,
		})
		assert.Equal(t, http.StatusConflict, w.Code, "paid must be immutable, target %s", target)
		assert.Contains(t, w.Body.String(), "WDR_002")
	}
}

func TestAPI_LegacyApprovedRow_RejectRefunds(t *testing.T) {
	f := newAPIFixture(t)
	token := f.operatorToken(t, uuid.New())
	userID := f.seedUser(t, 100000)

	// A migrated row still carrying the legacy "approved" status whose debit
	// already happened in the old system.
	requestID := uuid.New()
	f.withdrawalRepo.seedRaw(domain.WithdrawalRequest{
		ID:          requestID,
		UserID:      userID,
		Amount:      25000,
		RequestedAt: time.Now().UTC().Add(-24 * time.Hour),
		BankInfo:    "ACB 99887766",
	}, "approved")
	require.NoError(t, f.walletRepo.UpdateBalance(nil, nil, userID, 75000))
	require.NoError(t, f.ledgerRepo.Append(nil, nil, domain.NewDebitEntry(userID, 25000, &requestID)))

	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/withdrawals/%s/transition", requestID), token, map[string]any{
		"target_status": "rejected",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	request := decodeData(t, w)["request"].(map[string]interface{})
	assert.Equal(t, "rejected", request["status"])
	assert.Equal(t, true, request["refunded"])

	w = f.do(t, http.MethodGet, "/api/v1/wallets/"+userID.String()+"/balance", token, nil)
	assert.Equal(t, float64(100000), decodeData(t, w)["balance"])
}

func TestAPI_ListFiltersLegacySpelling(t *testing.T) {
	f := newAPIFixture(t)
	token := f.operatorToken(t, uuid.New())
	userID := f.seedUser(t, 500000)

	// One row with the canonical spelling, one migrated row with the typo.
	wdr := f.createWithdrawal(t, userID, 40000)
	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/withdrawals/%s/transition", wdr.ID), token, map[string]any{
		"target_status": "scheduled",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	f.withdrawalRepo.seedRaw(domain.WithdrawalRequest{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      10000,
		RequestedAt: time.Now().UTC().Add(-48 * time.Hour),
		BankInfo:    "TCB 11223344",
	}, "sheduled")

	w = f.do(t, http.MethodGet, "/api/v1/withdrawals?status=scheduled", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, float64(2), data["total"], "legacy spelling must be folded into the filter")

	items := data["items"].([]interface{})
	for _, item := range items {
		assert.Equal(t, "scheduled", item.(map[string]interface{})["status"], "output is always canonical")
	}
}

func TestAPI_TopupIsAudited(t *testing.T) {
	f := newAPIFixture(t)
	operatorID := uuid.New()
	token := f.operatorToken(t, operatorID)
	userID := f.seedUser(t, 10000)

	w := f.do(t, http.MethodPost, "/api/v1/wallets/"+userID.String()+"/topup", token, map[string]any{
		"amount": 500000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(510000), decodeData(t, w)["balance"])

	audits := f.auditRepo.byAction(domain.AuditActionTopup)
	require.Len(t, audits, 1)
	assert.Equal(t, operatorID, audits[0].OperatorID)
	assert.Equal(t, userID, audits[0].TargetUserID)
	assert.Equal(t, int64(500000), audits[0].Amount)
}
