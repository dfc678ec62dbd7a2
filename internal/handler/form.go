package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dan9191/credit-risk-service/internal/models"
	"github.com/Dan9191/credit-risk-service/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var formTemplate = template.Must(template.New("form.html").Funcs(template.FuncMap{
	"percent": func(p float64) string { return fmt.Sprintf("%.2f%%", p*100) },
}).ParseFS(templateFS, "templates/form.html"))

// formValues keeps the submitted strings so the form re-renders what the user typed.
// Ratio fields are percentages in [0, 100].
type formValues struct {
	Age                    string
	Income                 string
	LoanAmount             string
	LoanTenureMonths       string
	AvgDPDPerDelinquency   string
	DelinquencyRatio       string
	CreditUtilizationRatio string
	NumOpenAccounts        string
	ResidenceType          string
	LoanPurpose            string
	LoanType               string
}

type formView struct {
	Values         formValues
	ResidenceTypes []models.ResidenceType
	LoanPurposes   []models.LoanPurpose
	LoanTypes      []models.LoanType
	LoanToIncome   string
	Result         *models.ScoreResult
	Error          string
	Detail         string
}

func defaultFormValues() formValues {
	return formValues{
		Age:                    "28",
		Income:                 "1200000",
		LoanAmount:             "2560000",
		LoanTenureMonths:       "36",
		AvgDPDPerDelinquency:   "20",
		DelinquencyRatio:       "30",
		CreditUtilizationRatio: "30",
		NumOpenAccounts:        "2",
		ResidenceType:          string(models.ResidenceOwned),
		LoanPurpose:            string(models.PurposeEducation),
		LoanType:               string(models.LoanUnsecured),
	}
}

// ShowForm renders the empty application form
func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, http.StatusOK, newFormView(defaultFormValues()))
}

// SubmitForm scores the submitted form and renders the result
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	vals := formValues{
		Age:                    r.PostFormValue("age"),
		Income:                 r.PostFormValue("income"),
		LoanAmount:             r.PostFormValue("loan_amount"),
		LoanTenureMonths:       r.PostFormValue("loan_tenure_months"),
		AvgDPDPerDelinquency:   r.PostFormValue("avg_dpd_per_delinquency"),
		DelinquencyRatio:       r.PostFormValue("delinquency_ratio"),
		CreditUtilizationRatio: r.PostFormValue("credit_utilization_ratio"),
		NumOpenAccounts:        r.PostFormValue("num_open_accounts"),
		ResidenceType:          r.PostFormValue("residence_type"),
		LoanPurpose:            r.PostFormValue("loan_purpose"),
		LoanType:               r.PostFormValue("loan_type"),
	}
	view := newFormView(vals)

	app, err := vals.application()
	if err != nil {
		view.Error = err.Error()
		h.renderForm(w, http.StatusBadRequest, view)
		return
	}
	view.LoanToIncome = loanToIncomeLabel(app)

	res, err := h.svc.Score(r.Context(), app)
	if err != nil {
		status := http.StatusInternalServerError
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			status = http.StatusBadRequest
			view.Error = ve.Error()
		} else {
			view.Error = service.ErrPredictionFailed.Error()
			view.Detail = err.Error()
		}
		h.renderForm(w, status, view)
		return
	}

	view.Result = &res
	h.renderForm(w, http.StatusOK, view)
}

func newFormView(vals formValues) formView {
	return formView{
		Values:         vals,
		ResidenceTypes: models.ResidenceTypes,
		LoanPurposes:   models.LoanPurposes,
		LoanTypes:      models.LoanTypes,
	}
}

// application converts the form strings. Percentage inputs are scaled to fractions here,
// the pipeline only accepts ratios in [0, 1].
func (v formValues) application() (models.RawApplication, error) {
	var (
		app models.RawApplication
		err error
	)
	if app.Age, err = parseInt("age", v.Age); err != nil {
		return app, err
	}
	if app.Income, err = parseFloat("income", v.Income); err != nil {
		return app, err
	}
	if app.LoanAmount, err = parseFloat("loan amount", v.LoanAmount); err != nil {
		return app, err
	}
	if app.LoanTenureMonths, err = parseInt("loan tenure", v.LoanTenureMonths); err != nil {
		return app, err
	}
	if app.AvgDPDPerDelinquency, err = parseFloat("avg DPD per delinquency", v.AvgDPDPerDelinquency); err != nil {
		return app, err
	}
	delinquency, err := parseFloat("delinquency ratio", v.DelinquencyRatio)
	if err != nil {
		return app, err
	}
	utilization, err := parseFloat("credit utilization ratio", v.CreditUtilizationRatio)
	if err != nil {
		return app, err
	}
	app.DelinquencyRatio = delinquency / 100
	app.CreditUtilizationRatio = utilization / 100
	if app.NumOpenAccounts, err = parseInt("open credit accounts", v.NumOpenAccounts); err != nil {
		return app, err
	}
	app.ResidenceType = models.ResidenceType(v.ResidenceType)
	app.LoanPurpose = models.LoanPurpose(v.LoanPurpose)
	app.LoanType = models.LoanType(v.LoanType)
	return app, nil
}

func loanToIncomeLabel(app models.RawApplication) string {
	var ratio float64
	if app.Income > 0 {
		ratio = app.LoanAmount / app.Income
	}
	return strconv.FormatFloat(ratio, 'f', 2, 64)
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", field)
	}
	return v, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	return v, nil
}

func (h *Handler) renderForm(w http.ResponseWriter, status int, view formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, view); err != nil {
		h.log.Errorf("Failed to render form: %v", err)
	}
}
