package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brokeragedesk/backend/internal/models"
)

const customerColumns = `id, category, year, case_number, status, staff_id,
	inquiry_date, inquiry_source, contact_method, property_type,
	target_property, assessment_address, desired_property, customer_name,
	phone, current_address, email, first_call, call_status, mail_status,
	sms_status, showing_status, pre_assessment, visit_status,
	mediation_status, contract_status, expected_yield, expected_rent,
	self_funds, desired_loan, preferred_area, memo, created_at, updated_at`

// LoadCustomers returns one (category, year) partition ordered by case number
// descending.
func (s *Store) LoadCustomers(ctx context.Context, category string, year int) ([]models.Customer, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE category = $1 AND year = $2 ORDER BY case_number DESC`,
		category, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, customer)
	}
	return out, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, category string, year int, id string) (*models.Customer, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1::uuid AND category = $2 AND year = $3`,
		id, category, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	customer, err := scanCustomer(rows)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) SaveCustomer(ctx context.Context, customer models.Customer) error {
	row := flattenCustomer(customer)
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,
			$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category,
			year = EXCLUDED.year,
			case_number = EXCLUDED.case_number,
			status = EXCLUDED.status,
			staff_id = EXCLUDED.staff_id,
			inquiry_date = EXCLUDED.inquiry_date,
			inquiry_source = EXCLUDED.inquiry_source,
			contact_method = EXCLUDED.contact_method,
			property_type = EXCLUDED.property_type,
			target_property = EXCLUDED.target_property,
			assessment_address = EXCLUDED.assessment_address,
			desired_property = EXCLUDED.desired_property,
			customer_name = EXCLUDED.customer_name,
			phone = EXCLUDED.phone,
			current_address = EXCLUDED.current_address,
			email = EXCLUDED.email,
			first_call = EXCLUDED.first_call,
			call_status = EXCLUDED.call_status,
			mail_status = EXCLUDED.mail_status,
			sms_status = EXCLUDED.sms_status,
			showing_status = EXCLUDED.showing_status,
			pre_assessment = EXCLUDED.pre_assessment,
			visit_status = EXCLUDED.visit_status,
			mediation_status = EXCLUDED.mediation_status,
			contract_status = EXCLUDED.contract_status,
			expected_yield = EXCLUDED.expected_yield,
			expected_rent = EXCLUDED.expected_rent,
			self_funds = EXCLUDED.self_funds,
			desired_loan = EXCLUDED.desired_loan,
			preferred_area = EXCLUDED.preferred_area,
			memo = EXCLUDED.memo,
			updated_at = EXCLUDED.updated_at
	`, row...)
	return err
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM customers WHERE id = $1::uuid`, id)
	return err
}

func (s *Store) UpdateCaseNumber(ctx context.Context, customerID, caseNumber string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE customers SET case_number = $1 WHERE id = $2::uuid`, caseNumber, customerID)
	return err
}

// ListCustomerYears returns the distinct years present in the customer table,
// newest first.
func (s *Store) ListCustomerYears(ctx context.Context) ([]int, error) {
	rows, err := s.Pool.Query(ctx, `SELECT DISTINCT year FROM customers ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		out = append(out, year)
	}
	return out, rows.Err()
}

// flattenCustomer spreads the category-specific detail struct over the flat
// column set; columns belonging to other categories stay NULL.
func flattenCustomer(c models.Customer) []any {
	var (
		targetProperty, assessmentAddress, desiredProperty      any
		callStatus, mailStatus, smsStatus, showingStatus        any
		preAssessment, visitStatus, mediationStatus, contractSt any
		expectedYield, expectedRent, selfFunds, desiredLoan     any
		preferredArea                                           any
	)

	switch {
	case c.Sell != nil:
		assessmentAddress = textParam(c.Sell.AssessmentAddress)
		callStatus = textParam(c.Sell.CallStatus)
		mailStatus = textParam(c.Sell.MailStatus)
		smsStatus = textParam(c.Sell.SMSStatus)
		preAssessment = textParam(c.Sell.PreAssessment)
		visitStatus = textParam(c.Sell.VisitStatus)
		mediationStatus = textParam(c.Sell.Mediation)
		contractSt = textParam(c.Sell.Contract)
	case c.Buy != nil:
		targetProperty = textParam(c.Buy.TargetProperty)
		callStatus = textParam(c.Buy.CallStatus)
		mailStatus = textParam(c.Buy.MailStatus)
		showingStatus = textParam(c.Buy.ShowingStatus)
		contractSt = textParam(c.Buy.Contract)
	case c.Investment != nil:
		desiredProperty = textParam(c.Investment.DesiredProperty)
		callStatus = textParam(c.Investment.CallStatus)
		mailStatus = textParam(c.Investment.MailStatus)
		showingStatus = textParam(c.Investment.ShowingStatus)
		contractSt = textParam(c.Investment.Contract)
		expectedYield = textParam(c.Investment.YieldRate)
		expectedRent = textParam(c.Investment.ExpectedRent)
		selfFunds = textParam(c.Investment.OwnFunds)
		desiredLoan = textParam(c.Investment.LoanAmount)
		preferredArea = textParam(c.Investment.DesiredArea)
	}

	return []any{
		c.ID, c.Category, c.Year, c.CaseNumber, textParam(c.Status),
		textParam(c.StaffID), dateParam(c.InquiryDate), textParam(c.InquirySource),
		textParam(c.ContactMethod), textParam(c.PropertyType),
		targetProperty, assessmentAddress, desiredProperty,
		textParam(c.CustomerName), textParam(c.Phone), textParam(c.CurrentAddress),
		textParam(c.Email), textParam(c.FirstCall), callStatus, mailStatus,
		smsStatus, showingStatus, preAssessment, visitStatus, mediationStatus,
		contractSt, expectedYield, expectedRent, selfFunds, desiredLoan,
		preferredArea, textParam(c.Memo), textParam(c.CreatedAt),
		textParam(c.UpdatedAt),
	}
}

func scanCustomer(rows pgx.Rows) (models.Customer, error) {
	var (
		c                 models.Customer
		caseNumber        *string
		status            *string
		staffID           *string
		inquiryDate       *time.Time
		inquirySource     *string
		contactMethod     *string
		propertyType      *string
		targetProperty    *string
		assessmentAddress *string
		desiredProperty   *string
		customerName      *string
		phone             *string
		currentAddress    *string
		email             *string
		firstCall         *string
		callStatus        *string
		mailStatus        *string
		smsStatus         *string
		showingStatus     *string
		preAssessment     *string
		visitStatus       *string
		mediationStatus   *string
		contractStatus    *string
		expectedYield     *string
		expectedRent      *string
		selfFunds         *string
		desiredLoan       *string
		preferredArea     *string
		memo              *string
		createdAt         *string
		updatedAt         *string
	)

	if err := rows.Scan(
		&c.ID, &c.Category, &c.Year, &caseNumber, &status, &staffID,
		&inquiryDate, &inquirySource, &contactMethod, &propertyType,
		&targetProperty, &assessmentAddress, &desiredProperty, &customerName,
		&phone, &currentAddress, &email, &firstCall, &callStatus, &mailStatus,
		&smsStatus, &showingStatus, &preAssessment, &visitStatus,
		&mediationStatus, &contractStatus, &expectedYield, &expectedRent,
		&selfFunds, &desiredLoan, &preferredArea, &memo, &createdAt, &updatedAt,
	); err != nil {
		return models.Customer{}, err
	}

	c.CaseNumber = derefString(caseNumber)
	c.Status = derefString(status)
	c.StaffID = derefString(staffID)
	c.InquiryDate = dateString(inquiryDate)
	c.InquirySource = derefString(inquirySource)
	c.ContactMethod = derefString(contactMethod)
	c.PropertyType = derefString(propertyType)
	c.CustomerName = derefString(customerName)
	c.Phone = derefString(phone)
	c.CurrentAddress = derefString(currentAddress)
	c.Email = derefString(email)
	c.FirstCall = derefString(firstCall)
	c.Memo = derefString(memo)
	c.CreatedAt = derefString(createdAt)
	c.UpdatedAt = derefString(updatedAt)

	switch c.Category {
	case models.CategorySell:
		c.Sell = &models.SellDetails{
			AssessmentAddress: derefString(assessmentAddress),
			CallStatus:        derefString(callStatus),
			MailStatus:        derefString(mailStatus),
			SMSStatus:         derefString(smsStatus),
			PreAssessment:     derefString(preAssessment),
			VisitStatus:       derefString(visitStatus),
			Mediation:         derefString(mediationStatus),
			Contract:          derefString(contractStatus),
		}
	case models.CategoryBuy:
		c.Buy = &models.BuyDetails{
			TargetProperty: derefString(targetProperty),
			CallStatus:     derefString(callStatus),
			MailStatus:     derefString(mailStatus),
			ShowingStatus:  derefString(showingStatus),
			Contract:       derefString(contractStatus),
		}
	case models.CategoryInvestment:
		c.Investment = &models.InvestmentDetails{
			DesiredProperty: derefString(desiredProperty),
			CallStatus:      derefString(callStatus),
			MailStatus:      derefString(mailStatus),
			ShowingStatus:   derefString(showingStatus),
			Contract:        derefString(contractStatus),
			YieldRate:       derefString(expectedYield),
			ExpectedRent:    derefString(expectedRent),
			OwnFunds:        derefString(selfFunds),
			LoanAmount:      derefString(desiredLoan),
			DesiredArea:     derefString(preferredArea),
		}
	}

	return c, nil
}
