package scoring

import "github.com/Dan9191/credit-risk-service/internal/models"

// Column names the model artifact refers to.
const (
	ColAge                    = "age"
	ColLoanTenureMonths       = "loan_tenure_months"
	ColNumberOfOpenAccounts   = "number_of_open_accounts"
	ColCreditUtilizationRatio = "credit_utilization_ratio"
	ColLoanToIncome           = "loan_to_income"
	ColDelinquencyRatio       = "delinquency_ratio"
	ColAvgDPDPerDelinquency   = "avg_dpd_per_delinquency"

	ColResidenceOwned   = "residence_type_Owned"
	ColResidenceRented  = "residence_type_Rented"
	ColPurposeEducation = "loan_purpose_Education"
	ColPurposeHome      = "loan_purpose_Home"
	ColPurposePersonal  = "loan_purpose_Personal"
	ColLoanUnsecured    = "loan_type_Unsecured"

	ColNumberOfDependants       = "number_of_dependants"
	ColYearsAtCurrentAddress    = "years_at_current_address"
	ColZipcode                  = "zipcode"
	ColSanctionAmount           = "sanction_amount"
	ColProcessingFee            = "processing_fee"
	ColGST                      = "gst"
	ColNetDisbursement          = "net_disbursement"
	ColPrincipalOutstanding     = "principal_outstanding"
	ColBankBalanceAtApplication = "bank_balance_at_application"
	ColNumberOfClosedAccounts   = "number_of_closed_accounts"
	ColEnquiryCount             = "enquiry_count"
)

// placeholderValue fills columns the scaler was fitted on but the applicant never supplies.
// It must stay 1 for the fitted statistics to apply as trained.
const placeholderValue = 1.0

// Placeholders holds the columns present only to satisfy the scaler's fitted schema
type Placeholders struct {
	NumberOfDependants       float64
	YearsAtCurrentAddress    float64
	Zipcode                  float64
	SanctionAmount           float64
	ProcessingFee            float64
	GST                      float64
	NetDisbursement          float64
	PrincipalOutstanding     float64
	BankBalanceAtApplication float64
	NumberOfClosedAccounts   float64
	EnquiryCount             float64
}

// FeatureRecord is the full single-row feature table built from an application
type FeatureRecord struct {
	Age                    float64
	LoanTenureMonths       float64
	NumberOfOpenAccounts   float64
	CreditUtilizationRatio float64
	LoanToIncome           float64
	DelinquencyRatio       float64
	AvgDPDPerDelinquency   float64

	ResidenceOwned   float64
	ResidenceRented  float64
	PurposeEducation float64
	PurposeHome      float64
	PurposePersonal  float64
	LoanUnsecured    float64

	Placeholders
}

// BuildFeatures derives the feature record for app. Mortgage, Auto and Secured
// have no indicator column and encode as all zeros, matching the fitted model.
func BuildFeatures(app models.RawApplication) FeatureRecord {
	var loanToIncome float64
	if app.Income > 0 {
		loanToIncome = app.LoanAmount / app.Income
	}

	return FeatureRecord{
		Age:                    float64(app.Age),
		LoanTenureMonths:       float64(app.LoanTenureMonths),
		NumberOfOpenAccounts:   float64(app.NumOpenAccounts),
		CreditUtilizationRatio: app.CreditUtilizationRatio,
		LoanToIncome:           loanToIncome,
		DelinquencyRatio:       app.DelinquencyRatio,
		AvgDPDPerDelinquency:   app.AvgDPDPerDelinquency,

		ResidenceOwned:   indicator(app.ResidenceType == models.ResidenceOwned),
		ResidenceRented:  indicator(app.ResidenceType == models.ResidenceRented),
		PurposeEducation: indicator(app.LoanPurpose == models.PurposeEducation),
		PurposeHome:      indicator(app.LoanPurpose == models.PurposeHome),
		PurposePersonal:  indicator(app.LoanPurpose == models.PurposePersonal),
		LoanUnsecured:    indicator(app.LoanType == models.LoanUnsecured),

		Placeholders: Placeholders{
			NumberOfDependants:       placeholderValue,
			YearsAtCurrentAddress:    placeholderValue,
			Zipcode:                  placeholderValue,
			SanctionAmount:           placeholderValue,
			ProcessingFee:            placeholderValue,
			GST:                      placeholderValue,
			NetDisbursement:          placeholderValue,
			PrincipalOutstanding:     placeholderValue,
			BankBalanceAtApplication: placeholderValue,
			NumberOfClosedAccounts:   placeholderValue,
			EnquiryCount:             placeholderValue,
		},
	}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Lookup returns the value of the named column
func (r *FeatureRecord) Lookup(name string) (float64, bool) {
	switch name {
	case ColAge:
		return r.Age, true
	case ColLoanTenureMonths:
		return r.LoanTenureMonths, true
	case ColNumberOfOpenAccounts:
		return r.NumberOfOpenAccounts, true
	case ColCreditUtilizationRatio:
		return r.CreditUtilizationRatio, true
	case ColLoanToIncome:
		return r.LoanToIncome, true
	case ColDelinquencyRatio:
		return r.DelinquencyRatio, true
	case ColAvgDPDPerDelinquency:
		return r.AvgDPDPerDelinquency, true
	case ColResidenceOwned:
		return r.ResidenceOwned, true
	case ColResidenceRented:
		return r.ResidenceRented, true
	case ColPurposeEducation:
		return r.PurposeEducation, true
	case ColPurposeHome:
		return r.PurposeHome, true
	case ColPurposePersonal:
		return r.PurposePersonal, true
	case ColLoanUnsecured:
		return r.LoanUnsecured, true
	case ColNumberOfDependants:
		return r.NumberOfDependants, true
	case ColYearsAtCurrentAddress:
		return r.YearsAtCurrentAddress, true
	case ColZipcode:
		return r.Zipcode, true
	case ColSanctionAmount:
		return r.SanctionAmount, true
	case ColProcessingFee:
		return r.ProcessingFee, true
	case ColGST:
		return r.GST, true
	case ColNetDisbursement:
		return r.NetDisbursement, true
	case ColPrincipalOutstanding:
		return r.PrincipalOutstanding, true
	case ColBankBalanceAtApplication:
		return r.BankBalanceAtApplication, true
	case ColNumberOfClosedAccounts:
		return r.NumberOfClosedAccounts, true
	case ColEnquiryCount:
		return r.EnquiryCount, true
	}
	return 0, false
}

// Columns lists every column of a FeatureRecord in table order
func Columns() []string {
	return []string{
		ColAge, ColLoanTenureMonths, ColNumberOfOpenAccounts, ColCreditUtilizationRatio,
		ColLoanToIncome, ColDelinquencyRatio, ColAvgDPDPerDelinquency,
		ColResidenceOwned, ColResidenceRented,
		ColPurposeEducation, ColPurposeHome, ColPurposePersonal,
		ColLoanUnsecured,
		ColNumberOfDependants, ColYearsAtCurrentAddress, ColZipcode, ColSanctionAmount,
		ColProcessingFee, ColGST, ColNetDisbursement, ColPrincipalOutstanding,
		ColBankBalanceAtApplication, ColNumberOfClosedAccounts, ColEnquiryCount,
	}
}
