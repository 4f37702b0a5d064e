package mongo

import (
	"time"

	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/catalog"
	"github.com/xraph/vault/escrow"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/treasury"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/usage"
)

// BSON document models. Amounts are stored as int64 base units and the
// period duration as int64 nanoseconds.

type lockModel struct {
	ID         string    `bson:"_id"`
	Owner      string    `bson:"owner"`
	Index      uint64    `bson:"idx"`
	Amount     int64     `bson:"amount"`
	Consumed   int64     `bson:"consumed"`
	Active     bool      `bson:"active"`
	ExternalID string    `bson:"external_id"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toLockModel(l *escrow.Lock) *lockModel {
	return &lockModel{
		ID:         l.ID.String(),
		Owner:      l.Owner,
		Index:      l.Index,
		Amount:     l.Amount.Int64(),
		Consumed:   l.Consumed.Int64(),
		Active:     l.Active,
		ExternalID: l.ExternalID,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func fromLockModel(m *lockModel) (*escrow.Lock, error) {
	lockID, err := id.ParseLockID(m.ID)
	if err != nil {
		return nil, err
	}
	return &escrow.Lock{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         lockID,
		Owner:      m.Owner,
		Index:      m.Index,
		Amount:     types.Amount(m.Amount),
		Consumed:   types.Amount(m.Consumed),
		Active:     m.Active,
		ExternalID: m.ExternalID,
	}, nil
}

type settingsModel struct {
	ID          string    `bson:"_id"`
	MinimumLock int64     `bson:"minimum_lock"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type serviceModel struct {
	Key           string    `bson:"_id"`
	ID            string    `bson:"id"`
	UnitCost      int64     `bson:"unit_cost"`
	Active        bool      `bson:"active"`
	TotalConsumed int64     `bson:"total_consumed"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toServiceModel(svc *catalog.Service) *serviceModel {
	return &serviceModel{
		Key:           svc.Key,
		ID:            svc.ID.String(),
		UnitCost:      svc.UnitCost.Int64(),
		Active:        svc.Active,
		TotalConsumed: svc.TotalConsumed.Int64(),
		CreatedAt:     svc.CreatedAt,
		UpdatedAt:     svc.UpdatedAt,
	}
}

func fromServiceModel(m *serviceModel) (*catalog.Service, error) {
	serviceID, err := id.ParseServiceID(m.ID)
	if err != nil {
		return nil, err
	}
	return &catalog.Service{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            serviceID,
		Key:           m.Key,
		UnitCost:      types.Amount(m.UnitCost),
		Active:        m.Active,
		TotalConsumed: types.Amount(m.TotalConsumed),
	}, nil
}

type usageEventModel struct {
	ID         string    `bson:"_id"`
	Owner      string    `bson:"owner"`
	LockIndex  uint64    `bson:"lock_idx"`
	ServiceKey string    `bson:"service_key"`
	Units      int64     `bson:"units"`
	Cost       int64     `bson:"cost"`
	Backend    string    `bson:"backend"`
	ExternalID string    `bson:"external_id"`
	Timestamp  time.Time `bson:"ts"`
}

func toUsageEventModel(e *usage.Event) *usageEventModel {
	return &usageEventModel{
		ID:         e.ID.String(),
		Owner:      e.Owner,
		LockIndex:  e.LockIndex,
		ServiceKey: e.ServiceKey,
		Units:      e.Units,
		Cost:       e.Cost.Int64(),
		Backend:    e.Backend,
		ExternalID: e.ExternalID,
		Timestamp:  e.Timestamp,
	}
}

func fromUsageEventModel(m *usageEventModel) (*usage.Event, error) {
	eventID, err := id.ParseUsageID(m.ID)
	if err != nil {
		return nil, err
	}
	return &usage.Event{
		ID:         eventID,
		Owner:      m.Owner,
		LockIndex:  m.LockIndex,
		ServiceKey: m.ServiceKey,
		Units:      m.Units,
		Cost:       types.Amount(m.Cost),
		Backend:    m.Backend,
		ExternalID: m.ExternalID,
		Timestamp:  m.Timestamp,
	}, nil
}

type treasuryStateModel struct {
	ID               string    `bson:"_id"`
	TotalReceived    int64     `bson:"total_received"`
	TotalReallocated int64     `bson:"total_reallocated"`
	TotalWithdrawn   int64     `bson:"total_withdrawn"`
	PeriodIndex      uint64    `bson:"period_index"`
	PeriodStart      time.Time `bson:"period_start"`
	PeriodDuration   int64     `bson:"period_duration"`
	Paused           bool      `bson:"paused"`
	EmergencyStopped bool      `bson:"emergency_stopped"`
	EscrowSource     string    `bson:"escrow_source"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toTreasuryStateModel(st *treasury.State) *treasuryStateModel {
	return &treasuryStateModel{
		ID:               singletonID,
		TotalReceived:    st.TotalReceived.Int64(),
		TotalReallocated: st.TotalReallocated.Int64(),
		TotalWithdrawn:   st.TotalWithdrawn.Int64(),
		PeriodIndex:      st.PeriodIndex,
		PeriodStart:      st.PeriodStart,
		PeriodDuration:   int64(st.PeriodDuration),
		Paused:           st.Paused,
		EmergencyStopped: st.EmergencyStopped,
		EscrowSource:     st.EscrowSource,
		CreatedAt:        st.CreatedAt,
		UpdatedAt:        st.UpdatedAt,
	}
}

func fromTreasuryStateModel(m *treasuryStateModel) *treasury.State {
	return &treasury.State{
		Entity:           types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TotalReceived:    types.Amount(m.TotalReceived),
		TotalReallocated: types.Amount(m.TotalReallocated),
		TotalWithdrawn:   types.Amount(m.TotalWithdrawn),
		PeriodIndex:      m.PeriodIndex,
		PeriodStart:      m.PeriodStart,
		PeriodDuration:   time.Duration(m.PeriodDuration),
		Paused:           m.Paused,
		EmergencyStopped: m.EmergencyStopped,
		EscrowSource:     m.EscrowSource,
	}
}

type categoryModel struct {
	Key            string    `bson:"_id"`
	ID             string    `bson:"id"`
	PeriodLimit    int64     `bson:"period_limit"`
	TotalAllocated int64     `bson:"total_allocated"`
	Active         bool      `bson:"active"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toCategoryModel(c *treasury.Category) *categoryModel {
	return &categoryModel{
		Key:            c.Key,
		ID:             c.ID.String(),
		PeriodLimit:    c.PeriodLimit.Int64(),
		TotalAllocated: c.TotalAllocated.Int64(),
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func fromCategoryModel(m *categoryModel) (*treasury.Category, error) {
	categoryID, err := id.ParseCategoryID(m.ID)
	if err != nil {
		return nil, err
	}
	return &treasury.Category{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             categoryID,
		Key:            m.Key,
		PeriodLimit:    types.Amount(m.PeriodLimit),
		TotalAllocated: types.Amount(m.TotalAllocated),
		Active:         m.Active,
	}, nil
}

type periodAllocationModel struct {
	Period      uint64 `bson:"period"`
	CategoryKey string `bson:"category_key"`
	Allocated   int64  `bson:"allocated"`
}

type allocationModel struct {
	ID          string    `bson:"_id"`
	Allocator   string    `bson:"allocator"`
	Recipient   string    `bson:"recipient"`
	Amount      int64     `bson:"amount"`
	CategoryKey string    `bson:"category_key"`
	PeriodIndex uint64    `bson:"period_index"`
	Reason      string    `bson:"reason"`
	Timestamp   time.Time `bson:"ts"`
}

func toAllocationModel(a *treasury.Allocation) *allocationModel {
	return &allocationModel{
		ID:          a.ID.String(),
		Allocator:   a.Allocator,
		Recipient:   a.Recipient,
		Amount:      a.Amount.Int64(),
		CategoryKey: a.CategoryKey,
		PeriodIndex: a.PeriodIndex,
		Reason:      a.Reason,
		Timestamp:   a.Timestamp,
	}
}

func fromAllocationModel(m *allocationModel) (*treasury.Allocation, error) {
	allocationID, err := id.ParseAllocationID(m.ID)
	if err != nil {
		return nil, err
	}
	return &treasury.Allocation{
		ID:          allocationID,
		Allocator:   m.Allocator,
		Recipient:   m.Recipient,
		Amount:      types.Amount(m.Amount),
		CategoryKey: m.CategoryKey,
		PeriodIndex: m.PeriodIndex,
		Reason:      m.Reason,
		Timestamp:   m.Timestamp,
	}, nil
}

type withdrawalModel struct {
	ID          string    `bson:"_id"`
	Owner       string    `bson:"owner"`
	Destination string    `bson:"destination"`
	Amount      int64     `bson:"amount"`
	Purpose     string    `bson:"purpose"`
	Timestamp   time.Time `bson:"ts"`
}

func toWithdrawalModel(w *treasury.Withdrawal) *withdrawalModel {
	return &withdrawalModel{
		ID:          w.ID.String(),
		Owner:       w.Owner,
		Destination: w.Destination,
		Amount:      w.Amount.Int64(),
		Purpose:     w.Purpose,
		Timestamp:   w.Timestamp,
	}
}

func fromWithdrawalModel(m *withdrawalModel) (*treasury.Withdrawal, error) {
	withdrawalID, err := id.ParseWithdrawalID(m.ID)
	if err != nil {
		return nil, err
	}
	return &treasury.Withdrawal{
		ID:          withdrawalID,
		Owner:       m.Owner,
		Destination: m.Destination,
		Amount:      types.Amount(m.Amount),
		Purpose:     m.Purpose,
		Timestamp:   m.Timestamp,
	}, nil
}

type grantModel struct {
	ID        string    `bson:"_id"`
	Role      string    `bson:"role"`
	Principal string    `bson:"principal"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toGrantModel(g *authority.Grant) *grantModel {
	return &grantModel{
		ID:        g.ID.String(),
		Role:      string(g.Role),
		Principal: g.Principal,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func fromGrantModel(m *grantModel) (*authority.Grant, error) {
	grantID, err := id.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	return &authority.Grant{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        grantID,
		Role:      authority.Role(m.Role),
		Principal: m.Principal,
	}, nil
}
