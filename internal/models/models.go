package models

import "time"

// Deal status values a contract moves through. Anything else counts as active.
const (
	StatusClosed    = "closed"
	StatusCanceled  = "canceled"
	StatusPurchased = "purchased"
)

// Mediation contract types used by the staff summary.
const (
	TypeExclusive = "exclusive"
	TypeSole      = "sole"
	TypeGeneral   = "general"
)

// UnassignedStaff is the sentinel bucket for contracts without a staff member.
const UnassignedStaff = "unassigned"

// CancelInfo records why and when a contract was canceled.
type CancelInfo struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// PurchaseInfo is attached to contracts created through the purchase flow.
type PurchaseInfo struct {
	Date  string   `json:"date"`
	Price *float64 `json:"price"`
}

// ChangeEntry is one change-history item on a contract. From/To hold either a
// status string or a price number depending on Type.
type ChangeEntry struct {
	Type string `json:"type"`
	From any    `json:"from"`
	To   any    `json:"to"`
	Date string `json:"date"`
	User string `json:"user"`
}

type Contract struct {
	ID                  string           `json:"id"`
	YearMonth           string           `json:"year_month,omitempty"`
	SourceFile          string           `json:"source_file"`
	KeyBoxNumber        string           `json:"key_box_number"`
	StatusDate          string           `json:"status_date"`
	ReinsChangeDate     string           `json:"reins_change_date"`
	ReinsChanged        bool             `json:"reins_changed"`
	ReinsExpireDate     string           `json:"reins_expire_date"`
	ReinsRegistered     bool             `json:"reins_registered"`
	CancelInfo          *CancelInfo      `json:"cancel_info"`
	CreatedAt           string           `json:"created_at"`
	PriceHistory        []map[string]any `json:"price_history"`
	Notes               string           `json:"notes"`
	MediaSource         string           `json:"media_source"`
	DealStatus          string           `json:"deal_status"`
	SellerName          string           `json:"seller_name"`
	SellerAddress       string           `json:"seller_address"`
	SellerContact       string           `json:"seller_contact"`
	MediationExpireDate string           `json:"mediation_expire_date"`
	DealInfo            map[string]any   `json:"deal_info"`
	Staff               string           `json:"staff"`
	MediationStartDate  string           `json:"mediation_start_date"`
	UpdatedAt           string           `json:"updated_at"`
	UpdatedBy           string           `json:"updated_by"`
	PropertyAddress     string           `json:"property_address"`
	PropertyType        string           `json:"property_type"`
	CurrentPrice        *float64         `json:"current_price"`
	OccupancyStatus     string           `json:"occupancy_status"`
	ApplicationDate     string           `json:"application_date"`
	ContractType        string           `json:"contract_type"`
	PurchaseInfo        *PurchaseInfo    `json:"purchase_info"`
	KeyLocation         string           `json:"key_location"`
	ChangeHistory       []ChangeEntry    `json:"change_history"`
}

// Customer categories. Each category carries its own detail struct; exactly
// one of Sell/Buy/Investment is set, selected by Category.
const (
	CategorySell       = "sell"
	CategoryBuy        = "buy"
	CategoryInvestment = "investment"
)

type SellDetails struct {
	AssessmentAddress string `json:"assessment_address"`
	CallStatus        string `json:"call_status"`
	MailStatus        string `json:"mail_status"`
	SMSStatus         string `json:"sms_status"`
	PreAssessment     string `json:"pre_assessment"`
	VisitStatus       string `json:"visit_status"`
	Mediation         string `json:"mediation"`
	Contract          string `json:"contract"`
}

type BuyDetails struct {
	TargetProperty string `json:"target_property"`
	CallStatus     string `json:"call_status"`
	MailStatus     string `json:"mail_status"`
	ShowingStatus  string `json:"showing_status"`
	Contract       string `json:"contract"`
}

type InvestmentDetails struct {
	DesiredProperty string `json:"desired_property"`
	CallStatus      string `json:"call_status"`
	MailStatus      string `json:"mail_status"`
	ShowingStatus   string `json:"showing_status"`
	Contract        string `json:"contract"`
	YieldRate       string `json:"yield_rate"`
	ExpectedRent    string `json:"expected_rent"`
	OwnFunds        string `json:"own_funds"`
	LoanAmount      string `json:"loan_amount"`
	DesiredArea     string `json:"desired_area"`
}

type Customer struct {
	ID             string             `json:"id"`
	Category       string             `json:"category"`
	Year           int                `json:"year"`
	CaseNumber     string             `json:"case_number"`
	Status         string             `json:"status"`
	StaffID        string             `json:"staff_id"`
	InquiryDate    string             `json:"inquiry_date"`
	InquirySource  string             `json:"inquiry_source"`
	ContactMethod  string             `json:"contact_method"`
	PropertyType   string             `json:"property_type"`
	CustomerName   string             `json:"customer_name"`
	Phone          string             `json:"phone"`
	CurrentAddress string             `json:"current_address"`
	Email          string             `json:"email"`
	FirstCall      string             `json:"first_call"`
	Memo           string             `json:"memo"`
	CreatedAt      string             `json:"created_at"`
	UpdatedAt      string             `json:"updated_at"`
	Sell           *SellDetails       `json:"sell,omitempty"`
	Buy            *BuyDetails        `json:"buy,omitempty"`
	Investment     *InvestmentDetails `json:"investment,omitempty"`
}

// Goal is a monthly, annual, or default sales target. All numeric fields are
// non-negative after normalization.
type Goal struct {
	StoreTarget  int            `json:"storeTarget"`
	StaffTargets map[string]int `json:"staffTargets"`
	IncludeStaff []string       `json:"includeStaff"`
}

// SalesRecord is the recorded sales amount for a month or year. Store is
// authoritative unless absent or zero while the staff breakdown is not.
type SalesRecord struct {
	Store float64            `json:"store"`
	Staff map[string]float64 `json:"staff"`
}

// GoalsDocument is the single persisted goals document: one default goal plus
// per-month ("YYYY-MM") and per-year ("YYYY") overrides.
type GoalsDocument struct {
	Default Goal            `json:"default"`
	Monthly map[string]Goal `json:"monthly"`
	Annual  map[string]Goal `json:"annual"`
}

type SalesDocument struct {
	Default SalesRecord            `json:"default"`
	Monthly map[string]SalesRecord `json:"monthly"`
	Annual  map[string]SalesRecord `json:"annual"`
}

// Lease is a short-lived exclusive hold on a (resource type, resource id)
// pair. At most one live lease exists per pair; a lease is live while
// ExpiresAt is in the future.
type Lease struct {
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Holder       string    `json:"holder"`
	AcquiredAt   time.Time `json:"acquired_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// StaffProgress is the signed/canceled/net counter triple for one staff member.
type StaffProgress struct {
	Signed   int `json:"signed"`
	Canceled int `json:"canceled"`
	Net      int `json:"net"`
}

// MonthlyProgress is derived from the contract set, never persisted.
type MonthlyProgress struct {
	Signed   int                       `json:"signed"`
	Canceled int                       `json:"canceled"`
	Net      int                       `json:"net"`
	Staff    map[string]*StaffProgress `json:"staff"`
}

// YearlyProgress sums the months belonging to a year. Goal is the sum of the
// monthly goals unless an explicit annual goal overrides it; Progress is
// always the true sum of months.
type YearlyProgress struct {
	Months             []string        `json:"months"`
	Goal               Goal            `json:"goal"`
	MonthlyTargetTotal int             `json:"monthlyTargetTotal"`
	Progress           MonthlyProgress `json:"progress"`
}
