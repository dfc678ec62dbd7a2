package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/credit-risk-service/internal/artifact"
	"github.com/Dan9191/credit-risk-service/internal/config"
	"github.com/Dan9191/credit-risk-service/internal/models"
	"github.com/Dan9191/credit-risk-service/internal/scoring"
	"github.com/Dan9191/credit-risk-service/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
	"age": 28,
	"income": 1200000,
	"loan_amount": 2560000,
	"loan_tenure_months": 36,
	"avg_dpd_per_delinquency": 20,
	"delinquency_ratio": 0.3,
	"credit_utilization_ratio": 0.3,
	"num_open_accounts": 2,
	"residence_type": "Owned",
	"loan_purpose": "Personal",
	"loan_type": "Unsecured"
}`

func newTestRouter(t *testing.T, cfg *config.Config) *mux.Router {
	t.Helper()
	return newLoggingRouter(t, cfg, io.Discard)
}

func newLoggingRouter(t *testing.T, cfg *config.Config, out io.Writer) *mux.Router {
	t.Helper()
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)

	data, err := os.ReadFile(filepath.Join("..", "..", "artifacts", "model_data.json"))
	require.NoError(t, err)
	a, err := artifact.Decode(artifact.FormatJSON, data)
	require.NoError(t, err)
	p, err := scoring.NewPipeline(a, log)
	require.NoError(t, err)

	cfg.CacheTTL = time.Minute
	cfg.BatchConcurrency = 2
	svc := service.NewService(p, nil, log, cfg)
	return NewRouter(NewHandler(svc, log), cfg)
}

func do(r http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestScoreEndpoint(t *testing.T) {
	r := newTestRouter(t, &config.Config{})
	rec := do(r, http.MethodPost, "/api/v1/score", "application/json", sampleJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res models.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 0.5368773573795181, res.DefaultProbability, 1e-12)
	assert.Equal(t, 577, res.CreditScore)
	assert.Equal(t, models.RatingAverage, res.Rating)
}

func TestScoreEndpoint_BadRequests(t *testing.T) {
	r := newTestRouter(t, &config.Config{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"unknown field", `{"age": 30, "credit_history": 5}`},
		{"out of range", strings.Replace(sampleJSON, `"age": 28`, `"age": 12`, 1)},
		{"percent ratio", strings.Replace(sampleJSON, `"delinquency_ratio": 0.3`, `"delinquency_ratio": 30`, 1)},
		{"unknown category", strings.Replace(sampleJSON, `"Owned"`, `"Hostel"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/v1/score", "application/json", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var e errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestScoreBatchEndpoint(t *testing.T) {
	r := newTestRouter(t, &config.Config{})

	low := strings.Replace(sampleJSON, `"delinquency_ratio": 0.3`, `"delinquency_ratio": 0`, 1)
	body := `{"applications": [` + sampleJSON + `,` + low + `]}`
	rec := do(r, http.MethodPost, "/api/v1/score/batch", "application/json", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Results, 2)
	assert.Equal(t, 577, res.Results[0].CreditScore)
	assert.Greater(t, res.Results[1].CreditScore, res.Results[0].CreditScore)

	rec = do(r, http.MethodPost, "/api/v1/score/batch", "application/json", `{"applications": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelEndpoint(t *testing.T) {
	r := newTestRouter(t, &config.Config{})
	rec := do(r, http.MethodGet, "/api/v1/model", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info models.ModelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "2024.06.1", info.Version)
	assert.Equal(t, "minmax", info.ScalerKind)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, &config.Config{})
	rec := do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAPIRequiresTokenWhenConfigured(t *testing.T) {
	r := newTestRouter(t, &config.Config{JWTSecret: "secret"})

	rec := do(r, http.MethodPost, "/api/v1/score", "application/json", sampleJSON)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "analyst",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/score", bytes.NewBufferString(sampleJSON))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the form stays public
	rec = do(r, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScoreEndpoints_LogTokenSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "analyst",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		body   string
		msg    string
	}{
		{"single", "/api/v1/score", sampleJSON, "Scoring application"},
		{"batch", "/api/v1/score/batch", `{"applications": [` + sampleJSON + `]}`, "Scoring batch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := newLoggingRouter(t, &config.Config{JWTSecret: "secret"}, &out)

			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var entry map[string]any
			for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
				var e map[string]any
				require.NoError(t, json.Unmarshal([]byte(line), &e))
				if e["msg"] == tt.msg {
					entry = e
				}
			}
			require.NotNil(t, entry, out.String())
			assert.Equal(t, "analyst", entry["subject"])
			assert.Equal(t, tt.target, entry["path"])
		})
	}
}

func TestScoreEndpoint_NoSubjectWithoutAuth(t *testing.T) {
	var out bytes.Buffer
	r := newLoggingRouter(t, &config.Config{}, &out)
	rec := do(r, http.MethodPost, "/api/v1/score", "application/json", sampleJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out.String(), "Scoring application")
	assert.NotContains(t, out.String(), `"subject"`)
}

func TestShowForm(t *testing.T) {
	r := newTestRouter(t, &config.Config{})
	rec := do(r, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Credit Risk Prediction")
	assert.Contains(t, body, `value="1200000"`)
	assert.Contains(t, body, "<option selected>Owned</option>")
	assert.NotContains(t, body, "Prediction Result")
}

func formBody(overrides map[string]string) string {
	v := url.Values{}
	v.Set("age", "28")
	v.Set("income", "1200000")
	v.Set("loan_amount", "2560000")
	v.Set("loan_tenure_months", "36")
	v.Set("avg_dpd_per_delinquency", "20")
	v.Set("delinquency_ratio", "30")
	v.Set("credit_utilization_ratio", "30")
	v.Set("num_open_accounts", "2")
	v.Set("residence_type", "Owned")
	v.Set("loan_purpose", "Personal")
	v.Set("loan_type", "Unsecured")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v.Encode()
}

func TestSubmitForm(t *testing.T) {
	r := newTestRouter(t, &config.Config{})
	rec := do(r, http.MethodPost, "/", "application/x-www-form-urlencoded", formBody(nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Prediction Result")
	assert.Contains(t, body, "53.69%")
	assert.Contains(t, body, "577 / 900")
	assert.Contains(t, body, "Average")
	assert.Contains(t, body, "2.13")
	assert.Contains(t, body, "<option selected>Personal</option>")
}

func TestSubmitForm_Errors(t *testing.T) {
	r := newTestRouter(t, &config.Config{})

	rec := do(r, http.MethodPost, "/", "application/x-www-form-urlencoded", formBody(map[string]string{"age": "abc"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "age must be a whole number")

	rec = do(r, http.MethodPost, "/", "application/x-www-form-urlencoded", formBody(map[string]string{"delinquency_ratio": "150"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "delinquency_ratio")
}

func TestFormValues_ScalesPercentages(t *testing.T) {
	v := defaultFormValues()
	v.DelinquencyRatio = "45"
	v.CreditUtilizationRatio = "100"
	app, err := v.application()
	require.NoError(t, err)
	assert.Equal(t, 0.45, app.DelinquencyRatio)
	assert.Equal(t, 1.0, app.CreditUtilizationRatio)
	assert.Equal(t, models.PurposeEducation, app.LoanPurpose)
}

func TestLoanToIncomeLabel(t *testing.T) {
	assert.Equal(t, "2.13", loanToIncomeLabel(models.RawApplication{Income: 1200000, LoanAmount: 2560000}))
	assert.Equal(t, "0.00", loanToIncomeLabel(models.RawApplication{Income: 0, LoanAmount: 2560000}))
}
