package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brokeragedesk/backend/internal/casenumber"
	"github.com/brokeragedesk/backend/internal/models"
)

// Default value for the yes/no progress marks on a fresh lead.
const markPending = "pending"

func (h *Handler) categoryYear(c *gin.Context) (string, int, bool) {
	category := c.Param("category")
	if !validCategory(category) {
		writeError(c, http.StatusBadRequest, "INVALID_CATEGORY", "Unknown customer category", nil)
		return "", 0, false
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Year must be numeric", nil)
		return "", 0, false
	}
	return category, year, true
}

// @Summary List customers in a (category, year) partition
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/customers/{category}/{year} [get]
func (h *Handler) CustomersList(c *gin.Context) {
	category, year, ok := h.categoryYear(c)
	if !ok {
		return
	}

	customers, err := h.Store.LoadCustomers(c.Request.Context(), category, year)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customers", err.Error())
		return
	}

	customers = filterCustomers(customers, c.Query("staff"), c.Query("status"),
		c.Query("keyword"), c.Query("date_from"), c.Query("date_to"))

	// Newest case numbers first; records without a numeric suffix sink.
	sort.SliceStable(customers, func(i, j int) bool {
		si, _ := casenumber.TrailingSeq(customers[i].CaseNumber)
		sj, _ := casenumber.TrailingSeq(customers[j].CaseNumber)
		if si != sj {
			return si > sj
		}
		return customers[i].CaseNumber > customers[j].CaseNumber
	})

	c.JSON(http.StatusOK, gin.H{
		"meta":      gin.H{"category": category, "year": year},
		"customers": customers,
		"total":     len(customers),
	})
}

func (h *Handler) CustomerGet(c *gin.Context) {
	category, year, ok := h.categoryYear(c)
	if !ok {
		return
	}
	customer, err := h.Store.GetCustomer(c.Request.Context(), category, year, c.Param("id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customer", err.Error())
		return
	}
	if customer == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
		return
	}
	c.JSON(http.StatusOK, customer)
}

type customerRequest struct {
	CaseNumber    string `json:"case_number"`
	Status        string `json:"status"`
	StaffID       string `json:"staff_id"`
	InquiryDate   string `json:"inquiry_date" validate:"required"`
	InquirySource string `json:"inquiry_source"`
	ContactMethod string `json:"contact_method"`
	PropertyType  string `json:"property_type"`
	CustomerName  string `json:"customer_name" validate:"required"`
	Phone         string `json:"phone"`
	CurrentAddr   string `json:"current_address"`
	Email         string `json:"email"`
	FirstCall     string `json:"first_call"`
	Memo          string `json:"memo"`

	AssessmentAddress string `json:"assessment_address"`
	TargetProperty    string `json:"target_property"`
	DesiredProperty   string `json:"desired_property"`
	CallStatus        string `json:"call_status"`
	MailStatus        string `json:"mail_status"`
	SMSStatus         string `json:"sms_status"`
	ShowingStatus     string `json:"showing_status"`
	PreAssessment     string `json:"pre_assessment"`
	VisitStatus       string `json:"visit_status"`
	Mediation         string `json:"mediation"`
	Contract          string `json:"contract"`
	YieldRate         string `json:"yield_rate"`
	ExpectedRent      string `json:"expected_rent"`
	OwnFunds          string `json:"own_funds"`
	LoanAmount        string `json:"loan_amount"`
	DesiredArea       string `json:"desired_area"`
}

// @Summary Create a customer
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/customers/{category}/{year} [post]
func (h *Handler) CustomerCreate(c *gin.Context) {
	category, year, ok := h.categoryYear(c)
	if !ok {
		return
	}

	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid customer payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "inquiry_date and customer_name are required", err.Error())
		return
	}

	existing, err := h.Store.LoadCustomers(c.Request.Context(), category, year)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customers", err.Error())
		return
	}

	caseNumber := req.CaseNumber
	if caseNumber == "" {
		caseNumber = casenumber.Generate(category, year, req.InquiryDate, existing)
	}

	nowISO := time.Now().Format(time.RFC3339)
	staff := req.StaffID
	if staff == "" {
		staff = currentUser(c)
	}
	customer := models.Customer{
		ID:             uuid.NewString(),
		Category:       category,
		Year:           year,
		CaseNumber:     caseNumber,
		Status:         orDefault(req.Status, "new"),
		StaffID:        staff,
		InquiryDate:    req.InquiryDate,
		InquirySource:  req.InquirySource,
		ContactMethod:  req.ContactMethod,
		PropertyType:   req.PropertyType,
		CustomerName:   req.CustomerName,
		Phone:          req.Phone,
		CurrentAddress: req.CurrentAddr,
		Email:          req.Email,
		FirstCall:      orDefault(req.FirstCall, markPending),
		Memo:           req.Memo,
		CreatedAt:      nowISO,
		UpdatedAt:      nowISO,
	}

	switch category {
	case models.CategorySell:
		customer.Sell = &models.SellDetails{
			AssessmentAddress: req.AssessmentAddress,
			CallStatus:        orDefault(req.CallStatus, markPending),
			MailStatus:        orDefault(req.MailStatus, markPending),
			SMSStatus:         orDefault(req.SMSStatus, markPending),
			PreAssessment:     orDefault(req.PreAssessment, markPending),
			VisitStatus:       orDefault(req.VisitStatus, markPending),
			Mediation:         orDefault(req.Mediation, markPending),
			Contract:          orDefault(req.Contract, markPending),
		}
	case models.CategoryBuy:
		customer.Buy = &models.BuyDetails{
			TargetProperty: req.TargetProperty,
			CallStatus:     orDefault(req.CallStatus, markPending),
			MailStatus:     orDefault(req.MailStatus, markPending),
			ShowingStatus:  orDefault(req.ShowingStatus, markPending),
			Contract:       orDefault(req.Contract, markPending),
		}
	case models.CategoryInvestment:
		customer.Investment = &models.InvestmentDetails{
			DesiredProperty: req.DesiredProperty,
			CallStatus:      orDefault(req.CallStatus, markPending),
			MailStatus:      orDefault(req.MailStatus, markPending),
			ShowingStatus:   orDefault(req.ShowingStatus, markPending),
			Contract:        orDefault(req.Contract, markPending),
			YieldRate:       req.YieldRate,
			ExpectedRent:    req.ExpectedRent,
			OwnFunds:        req.OwnFunds,
			LoanAmount:      req.LoanAmount,
			DesiredArea:     req.DesiredArea,
		}
	}

	if err := h.Store.SaveCustomer(c.Request.Context(), customer); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save customer", err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "customer": customer})
}

func (h *Handler) CustomerUpdate(c *gin.Context) {
	category, year, ok := h.categoryYear(c)
	if !ok {
		return
	}

	existing, err := h.Store.GetCustomer(c.Request.Context(), category, year, c.Param("id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customer", err.Error())
		return
	}
	if existing == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
		return
	}

	var payload models.Customer
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid customer payload", err.Error())
		return
	}

	// id, category, year, and createdAt are immutable.
	payload.ID = existing.ID
	payload.Category = existing.Category
	payload.Year = existing.Year
	payload.CreatedAt = existing.CreatedAt
	payload.UpdatedAt = time.Now().Format(time.RFC3339)

	if err := h.Store.SaveCustomer(c.Request.Context(), payload); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save customer", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "customer": payload})
}

// CustomerDelete removes the record and immediately re-derives the case
// numbers for the rest of the partition.
func (h *Handler) CustomerDelete(c *gin.Context) {
	category, year, ok := h.categoryYear(c)
	if !ok {
		return
	}

	existing, err := h.Store.GetCustomer(c.Request.Context(), category, year, c.Param("id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customer", err.Error())
		return
	}
	if existing == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
		return
	}

	if err := h.Store.DeleteCustomer(c.Request.Context(), existing.ID); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to delete customer", err.Error())
		return
	}
	if _, err := h.Sequencer.Reassign(c.Request.Context(), category, year); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reassign case numbers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary Re-derive case numbers for a partition
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/customers/reassign/{category}/{year} [post]
func (h *Handler) CaseNumbersReassign(c *gin.Context) {
	category, year, ok := h.categoryYear(c)
	if !ok {
		return
	}
	count, err := h.Sequencer.Reassign(c.Request.Context(), category, year)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reassign case numbers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "reassigned_count": count})
}

func (h *Handler) CaseNumberPreview(c *gin.Context) {
	category, year, ok := h.categoryYear(c)
	if !ok {
		return
	}
	existing, err := h.Store.LoadCustomers(c.Request.Context(), category, year)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customers", err.Error())
		return
	}
	inquiryDate := time.Now().Format("2006-01-02")
	c.JSON(http.StatusOK, gin.H{
		"case_number": casenumber.Generate(category, year, inquiryDate, existing),
	})
}

func (h *Handler) CustomerYears(c *gin.Context) {
	years := map[int]bool{}
	current := time.Now().Year()
	for i := 0; i < 3; i++ {
		years[current-i] = true
	}

	stored, err := h.Store.ListCustomerYears(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load years", err.Error())
		return
	}
	for _, year := range stored {
		years[year] = true
	}

	out := make([]int, 0, len(years))
	for year := range years {
		out = append(out, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	c.JSON(http.StatusOK, out)
}

// @Summary Export a customer partition as CSV
// @Produce text/csv
// @Success 200 {string} string
// @Router /api/customers/{category}/{year}/export [get]
func (h *Handler) CustomersExport(c *gin.Context) {
	category, year, ok := h.categoryYear(c)
	if !ok {
		return
	}
	customers, err := h.Store.LoadCustomers(c.Request.Context(), category, year)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customers", err.Error())
		return
	}
	if len(customers) == 0 {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No customers to export", nil)
		return
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	_ = w.Write(exportHeaders(category))
	for _, customer := range customers {
		_ = w.Write(exportRow(category, customer))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		writeError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build CSV", err.Error())
		return
	}

	filename := fmt.Sprintf("customers_%s_%d.csv", category, year)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", []byte(buf.String()))
}

func filterCustomers(customers []models.Customer, staff, status, keyword, dateFrom, dateTo string) []models.Customer {
	out := customers[:0:0]
	kw := strings.ToLower(keyword)
	for _, customer := range customers {
		if staff != "" && customer.StaffID != staff {
			continue
		}
		if status != "" && customer.Status != status {
			continue
		}
		if kw != "" && !matchesKeyword(customer, kw) {
			continue
		}
		if dateFrom != "" && customer.InquiryDate < dateFrom {
			continue
		}
		if dateTo != "" && customer.InquiryDate > dateTo {
			continue
		}
		out = append(out, customer)
	}
	return out
}

func matchesKeyword(customer models.Customer, kw string) bool {
	fields := []string{
		customer.CustomerName,
		customer.CurrentAddress,
		customer.CaseNumber,
		customer.Phone,
	}
	if customer.Sell != nil {
		fields = append(fields, customer.Sell.AssessmentAddress)
	}
	if customer.Buy != nil {
		fields = append(fields, customer.Buy.TargetProperty)
	}
	if customer.Investment != nil {
		fields = append(fields, customer.Investment.DesiredProperty)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), kw) {
			return true
		}
	}
	return false
}

func exportHeaders(category string) []string {
	common := []string{"case_number", "status", "staff", "inquiry_date",
		"inquiry_source", "contact_method", "property_type"}
	tail := []string{"customer_name", "phone", "current_address", "email"}
	switch category {
	case models.CategorySell:
		return append(append(append(common, "assessment_address"), tail...),
			"call", "mail", "sms", "pre_assessment", "visit", "mediation", "contract", "memo")
	case models.CategoryBuy:
		return append(append(append(common, "target_property"), tail...),
			"call", "mail", "showing", "contract", "memo")
	default:
		return append(append(append(common, "desired_property"), tail...),
			"call", "mail", "showing", "contract", "yield_rate", "expected_rent",
			"own_funds", "loan_amount", "desired_area", "memo")
	}
}

func exportRow(category string, c models.Customer) []string {
	common := []string{c.CaseNumber, c.Status, c.StaffID, c.InquiryDate,
		c.InquirySource, c.ContactMethod, c.PropertyType}
	tail := []string{c.CustomerName, c.Phone, c.CurrentAddress, c.Email}
	switch category {
	case models.CategorySell:
		d := c.Sell
		if d == nil {
			d = &models.SellDetails{}
		}
		return append(append(append(common, d.AssessmentAddress), tail...),
			d.CallStatus, d.MailStatus, d.SMSStatus, d.PreAssessment,
			d.VisitStatus, d.Mediation, d.Contract, c.Memo)
	case models.CategoryBuy:
		d := c.Buy
		if d == nil {
			d = &models.BuyDetails{}
		}
		return append(append(append(common, d.TargetProperty), tail...),
			d.CallStatus, d.MailStatus, d.ShowingStatus, d.Contract, c.Memo)
	default:
		d := c.Investment
		if d == nil {
			d = &models.InvestmentDetails{}
		}
		return append(append(append(common, d.DesiredProperty), tail...),
			d.CallStatus, d.MailStatus, d.ShowingStatus, d.Contract,
			d.YieldRate, d.ExpectedRent, d.OwnFunds, d.LoanAmount,
			d.DesiredArea, c.Memo)
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
