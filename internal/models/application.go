package models

// ResidenceType is the applicant's housing situation
type ResidenceType string

const (
	ResidenceOwned    ResidenceType = "Owned"
	ResidenceRented   ResidenceType = "Rented"
	ResidenceMortgage ResidenceType = "Mortgage"
)

// LoanPurpose is the declared use of the loan
type LoanPurpose string

const (
	PurposeEducation LoanPurpose = "Education"
	PurposeHome      LoanPurpose = "Home"
	PurposeAuto      LoanPurpose = "Auto"
	PurposePersonal  LoanPurpose = "Personal"
)

// LoanType tells whether the loan is backed by collateral
type LoanType string

const (
	LoanUnsecured LoanType = "Unsecured"
	LoanSecured   LoanType = "Secured"
)

// ResidenceTypes lists the accepted residence types in display order
var ResidenceTypes = []ResidenceType{ResidenceOwned, ResidenceRented, ResidenceMortgage}

// LoanPurposes lists the accepted loan purposes in display order
var LoanPurposes = []LoanPurpose{PurposeEducation, PurposeHome, PurposeAuto, PurposePersonal}

// LoanTypes lists the accepted loan types in display order
var LoanTypes = []LoanType{LoanUnsecured, LoanSecured}

// RawApplication holds the eleven applicant and loan attributes supplied by the caller.
// DelinquencyRatio and CreditUtilizationRatio are fractions in [0, 1]. The
// validate tags bound each field; the pipeline itself never enforces them.
// Income is only required to be finite: a non-positive income is scored with
// a zero loan-to-income ratio.
type RawApplication struct {
	Age                    int           `json:"age" validate:"gte=18,lte=100"`
	Income                 float64       `json:"income" validate:"finite"`
	LoanAmount             float64       `json:"loan_amount" validate:"finite,gte=0"`
	LoanTenureMonths       int           `json:"loan_tenure_months" validate:"gte=1,lte=360"`
	AvgDPDPerDelinquency   float64       `json:"avg_dpd_per_delinquency" validate:"finite,gte=0"`
	DelinquencyRatio       float64       `json:"delinquency_ratio" validate:"gte=0,lte=1"`
	CreditUtilizationRatio float64       `json:"credit_utilization_ratio" validate:"gte=0,lte=1"`
	NumOpenAccounts        int           `json:"num_open_accounts" validate:"gte=1"`
	ResidenceType          ResidenceType `json:"residence_type" validate:"oneof=Owned Rented Mortgage"`
	LoanPurpose            LoanPurpose   `json:"loan_purpose" validate:"oneof=Education Home Auto Personal"`
	LoanType               LoanType      `json:"loan_type" validate:"oneof=Unsecured Secured"`
}
