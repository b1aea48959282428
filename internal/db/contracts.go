package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brokeragedesk/backend/internal/models"
)

// execer is satisfied by both the pool and a transaction, so the contract
// upsert can run inside or outside WithTx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const contractColumns = `id, year_month, source_file, key_box_number, status_date,
	reins_change_date, reins_changed, reins_expire_date, reins_registered,
	cancel_info, created_at, updated_at, updated_by, notes, media_source,
	deal_status, seller_name, seller_address, seller_contact,
	mediation_expire_date, mediation_start_date, staff_id, property_address,
	property_type, current_price, occupancy_status, application_date,
	contract_type, key_location, price_history, change_history, deal_info,
	purchase_info`

// ListContracts loads the full contract set ordered by property address. The
// aggregation layer rescans this on every call.
func (s *Store) ListContracts(ctx context.Context) ([]models.Contract, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY property_address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, contract)
	}
	return out, rows.Err()
}

func (s *Store) FindContract(ctx context.Context, id string) (*models.Contract, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
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
	contract, err := scanContract(rows)
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (s *Store) SaveContract(ctx context.Context, contract models.Contract) error {
	return saveContract(ctx, s.Pool, contract)
}

// RenameContract moves a contract onto a new id: the old row is dropped and
// the new one written in a single transaction, so a crash in between cannot
// lose the record.
func (s *Store) RenameContract(ctx context.Context, oldID string, contract models.Contract) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, oldID); err != nil {
			return err
		}
		return saveContract(ctx, tx, contract)
	})
}

func saveContract(ctx context.Context, q execer, contract models.Contract) error {
	cancelInfo, err := jsonParam(contract.CancelInfo)
	if err != nil {
		return err
	}
	priceHistory, err := jsonParam(orEmptySlice(contract.PriceHistory))
	if err != nil {
		return err
	}
	changeHistory, err := jsonParam(orEmptyChanges(contract.ChangeHistory))
	if err != nil {
		return err
	}
	dealInfo, err := jsonParam(contract.DealInfo)
	if err != nil {
		return err
	}
	purchaseInfo, err := jsonParam(contract.PurchaseInfo)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO contracts (`+contractColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33)
		ON CONFLICT (id) DO UPDATE SET
			year_month = EXCLUDED.year_month,
			source_file = EXCLUDED.source_file,
			key_box_number = EXCLUDED.key_box_number,
			status_date = EXCLUDED.status_date,
			reins_change_date = EXCLUDED.reins_change_date,
			reins_changed = EXCLUDED.reins_changed,
			reins_expire_date = EXCLUDED.reins_expire_date,
			reins_registered = EXCLUDED.reins_registered,
			cancel_info = EXCLUDED.cancel_info,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by,
			notes = EXCLUDED.notes,
			media_source = EXCLUDED.media_source,
			deal_status = EXCLUDED.deal_status,
			seller_name = EXCLUDED.seller_name,
			seller_address = EXCLUDED.seller_address,
			seller_contact = EXCLUDED.seller_contact,
			mediation_expire_date = EXCLUDED.mediation_expire_date,
			mediation_start_date = EXCLUDED.mediation_start_date,
			staff_id = EXCLUDED.staff_id,
			property_address = EXCLUDED.property_address,
			property_type = EXCLUDED.property_type,
			current_price = EXCLUDED.current_price,
			occupancy_status = EXCLUDED.occupancy_status,
			application_date = EXCLUDED.application_date,
			contract_type = EXCLUDED.contract_type,
			key_location = EXCLUDED.key_location,
			price_history = EXCLUDED.price_history,
			change_history = EXCLUDED.change_history,
			deal_info = EXCLUDED.deal_info,
			purchase_info = EXCLUDED.purchase_info
	`,
		contract.ID, textParam(contract.YearMonth), contract.SourceFile,
		textParam(contract.KeyBoxNumber), dateParam(contract.StatusDate),
		dateParam(contract.ReinsChangeDate), contract.ReinsChanged,
		dateParam(contract.ReinsExpireDate), contract.ReinsRegistered,
		cancelInfo, textParam(contract.CreatedAt), textParam(contract.UpdatedAt),
		textParam(contract.UpdatedBy), textParam(contract.Notes),
		textParam(contract.MediaSource), textParam(contract.DealStatus),
		textParam(contract.SellerName), textParam(contract.SellerAddress),
		textParam(contract.SellerContact), dateParam(contract.MediationExpireDate),
		dateParam(contract.MediationStartDate), textParam(contract.Staff),
		textParam(contract.PropertyAddress), textParam(contract.PropertyType),
		contract.CurrentPrice, textParam(contract.OccupancyStatus),
		dateParam(contract.ApplicationDate), textParam(contract.ContractType),
		textParam(contract.KeyLocation), priceHistory, changeHistory,
		dealInfo, purchaseInfo,
	)
	return err
}

func (s *Store) DeleteContract(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	return err
}

// ContractIDExists checks for a duplicate id, optionally ignoring one record
// (used when renaming a contract onto its own id).
func (s *Store) ContractIDExists(ctx context.Context, id, excludeID string) (bool, error) {
	var one int
	var err error
	if excludeID != "" {
		err = s.Pool.QueryRow(ctx,
			`SELECT 1 FROM contracts WHERE id = $1 AND id != $2 LIMIT 1`, id, excludeID).Scan(&one)
	} else {
		err = s.Pool.QueryRow(ctx, `SELECT 1 FROM contracts WHERE id = $1 LIMIT 1`, id).Scan(&one)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanContract(rows pgx.Rows) (models.Contract, error) {
	var (
		c             models.Contract
		yearMonth     *string
		keyBox        *string
		statusDate    *time.Time
		reinsChange   *time.Time
		reinsExpire   *time.Time
		cancelInfo    []byte
		createdAt     *string
		updatedAt     *string
		updatedBy     *string
		notes         *string
		mediaSource   *string
		dealStatus    *string
		sellerName    *string
		sellerAddr    *string
		sellerContact *string
		mediationExp  *time.Time
		mediationStrt *time.Time
		staff         *string
		propAddress   *string
		propType      *string
		occupancy     *string
		application   *time.Time
		contractType  *string
		keyLocation   *string
		priceHistory  []byte
		changeHistory []byte
		dealInfo      []byte
		purchaseInfo  []byte
	)

	if err := rows.Scan(
		&c.ID, &yearMonth, &c.SourceFile, &keyBox, &statusDate,
		&reinsChange, &c.ReinsChanged, &reinsExpire, &c.ReinsRegistered,
		&cancelInfo, &createdAt, &updatedAt, &updatedBy, &notes, &mediaSource,
		&dealStatus, &sellerName, &sellerAddr, &sellerContact,
		&mediationExp, &mediationStrt, &staff, &propAddress,
		&propType, &c.CurrentPrice, &occupancy, &application,
		&contractType, &keyLocation, &priceHistory, &changeHistory, &dealInfo,
		&purchaseInfo,
	); err != nil {
		return models.Contract{}, err
	}

	c.YearMonth = derefString(yearMonth)
	c.KeyBoxNumber = derefString(keyBox)
	c.StatusDate = dateString(statusDate)
	c.ReinsChangeDate = dateString(reinsChange)
	c.ReinsExpireDate = dateString(reinsExpire)
	c.CreatedAt = derefString(createdAt)
	c.UpdatedAt = derefString(updatedAt)
	c.UpdatedBy = derefString(updatedBy)
	c.Notes = derefString(notes)
	c.MediaSource = derefString(mediaSource)
	c.DealStatus = derefString(dealStatus)
	c.SellerName = derefString(sellerName)
	c.SellerAddress = derefString(sellerAddr)
	c.SellerContact = derefString(sellerContact)
	c.MediationExpireDate = dateString(mediationExp)
	c.MediationStartDate = dateString(mediationStrt)
	c.Staff = derefString(staff)
	c.PropertyAddress = derefString(propAddress)
	c.PropertyType = derefString(propType)
	c.OccupancyStatus = derefString(occupancy)
	c.ApplicationDate = dateString(application)
	c.ContractType = derefString(contractType)
	c.KeyLocation = derefString(keyLocation)

	if len(cancelInfo) > 0 {
		var ci models.CancelInfo
		if err := json.Unmarshal(cancelInfo, &ci); err == nil {
			c.CancelInfo = &ci
		}
	}
	if len(priceHistory) > 0 {
		_ = json.Unmarshal(priceHistory, &c.PriceHistory)
	}
	if c.PriceHistory == nil {
		c.PriceHistory = []map[string]any{}
	}
	if len(changeHistory) > 0 {
		_ = json.Unmarshal(changeHistory, &c.ChangeHistory)
	}
	if c.ChangeHistory == nil {
		c.ChangeHistory = []models.ChangeEntry{}
	}
	if len(dealInfo) > 0 {
		_ = json.Unmarshal(dealInfo, &c.DealInfo)
	}
	if len(purchaseInfo) > 0 {
		var pi models.PurchaseInfo
		if err := json.Unmarshal(purchaseInfo, &pi); err == nil {
			c.PurchaseInfo = &pi
		}
	}

	return c, nil
}

func orEmptySlice(v []map[string]any) []map[string]any {
	if v == nil {
		return []map[string]any{}
	}
	return v
}

func orEmptyChanges(v []models.ChangeEntry) []models.ChangeEntry {
	if v == nil {
		return []models.ChangeEntry{}
	}
	return v
}
