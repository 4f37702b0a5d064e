// Package mongo provides a MongoDB-backed Store implementation using the
// official driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/vault"
	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/catalog"
	"github.com/xraph/vault/escrow"
	vaultstore "github.com/xraph/vault/store"
	"github.com/xraph/vault/treasury"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/usage"
)

// Collection name constants.
const (
	colLocks             = "vault_locks"
	colEscrowSettings    = "vault_escrow_settings"
	colServices          = "vault_services"
	colUsageEvents       = "vault_usage_events"
	colTreasuryState     = "vault_treasury_state"
	colCategories        = "vault_categories"
	colPeriodAllocations = "vault_period_allocations"
	colAllocations       = "vault_allocations"
	colWithdrawals       = "vault_withdrawals"
	colAuthorityGrants   = "vault_authority_grants"
)

// singletonID keys the one-document collections (settings, treasury state).
const singletonID = "singleton"

// compile-time interface check
var _ vaultstore.Store = (*Store)(nil)

// Store implements store.Store on a MongoDB database.
type Store struct {
	db *mongo.Database
}

// New creates a MongoDB store. The caller owns the client lifecycle; Close
// is a no-op so one client can serve multiple stores.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Migrate creates indexes for all vault collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colLocks: {
			{
				Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "idx", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "active", Value: 1}}},
		},
		colUsageEvents: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "ts", Value: 1}}},
			{Keys: bson.D{{Key: "service_key", Value: 1}, {Key: "ts", Value: 1}}},
		},
		colPeriodAllocations: {
			{
				Keys:    bson.D{{Key: "period", Value: 1}, {Key: "category_key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colAllocations: {
			{Keys: bson.D{{Key: "category_key", Value: 1}, {Key: "ts", Value: 1}}},
		},
		colWithdrawals: {
			{Keys: bson.D{{Key: "ts", Value: 1}}},
		},
		colAuthorityGrants: {
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "principal", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("vault/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close is a no-op; the mongo client is owned by the caller.
func (s *Store) Close() error {
	return nil
}

// ==================== Escrow Store ====================

func (s *Store) AppendLock(ctx context.Context, l *escrow.Lock) error {
	// The engine serializes lock creation per ledger, so counting is a
	// safe way to assign the next dense index; the unique (owner, idx)
	// index backstops any race.
	count, err := s.db.Collection(colLocks).CountDocuments(ctx, bson.M{"owner": l.Owner})
	if err != nil {
		return fmt.Errorf("vault/mongo: count locks: %w", err)
	}
	l.Index = uint64(count)

	if _, err := s.db.Collection(colLocks).InsertOne(ctx, toLockModel(l)); err != nil {
		return fmt.Errorf("vault/mongo: append lock: %w", err)
	}
	return nil
}

func (s *Store) GetLock(ctx context.Context, owner string, index uint64) (*escrow.Lock, error) {
	var m lockModel
	err := s.db.Collection(colLocks).
		FindOne(ctx, bson.M{"owner": owner, "idx": index}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vault.ErrLockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: get lock: %w", err)
	}
	return fromLockModel(&m)
}

func (s *Store) ListLocks(ctx context.Context, owner string, opts escrow.ListOpts) ([]*escrow.Lock, error) {
	filter := bson.M{"owner": owner}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "idx", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colLocks).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: list locks: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*escrow.Lock, 0)
	for cur.Next(ctx) {
		var m lockModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		l, err := fromLockModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, cur.Err()
}

func (s *Store) UpdateLock(ctx context.Context, l *escrow.Lock) error {
	res, err := s.db.Collection(colLocks).UpdateOne(ctx,
		bson.M{"owner": l.Owner, "idx": l.Index},
		bson.M{"$set": bson.M{
			"amount":      l.Amount.Int64(),
			"consumed":    l.Consumed.Int64(),
			"active":      l.Active,
			"external_id": l.ExternalID,
			"updated_at":  l.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("vault/mongo: update lock: %w", err)
	}
	if res.MatchedCount == 0 {
		return vault.ErrLockNotFound
	}
	return nil
}

func (s *Store) GetEscrowSettings(ctx context.Context) (*escrow.Settings, error) {
	var m settingsModel
	err := s.db.Collection(colEscrowSettings).
		FindOne(ctx, bson.M{"_id": singletonID}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: get escrow settings: %w", err)
	}
	return &escrow.Settings{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		MinimumLock: types.Amount(m.MinimumLock),
	}, nil
}

func (s *Store) SaveEscrowSettings(ctx context.Context, settings *escrow.Settings) error {
	m := &settingsModel{
		ID:          singletonID,
		MinimumLock: settings.MinimumLock.Int64(),
		CreatedAt:   settings.CreatedAt,
		UpdatedAt:   settings.UpdatedAt,
	}
	_, err := s.db.Collection(colEscrowSettings).ReplaceOne(ctx,
		bson.M{"_id": singletonID}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("vault/mongo: save escrow settings: %w", err)
	}
	return nil
}

// ==================== Catalog Store ====================

func (s *Store) CreateService(ctx context.Context, svc *catalog.Service) error {
	_, err := s.db.Collection(colServices).InsertOne(ctx, toServiceModel(svc))
	if mongo.IsDuplicateKeyError(err) {
		return vault.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("vault/mongo: create service: %w", err)
	}
	return nil
}

func (s *Store) GetService(ctx context.Context, key string) (*catalog.Service, error) {
	var m serviceModel
	err := s.db.Collection(colServices).
		FindOne(ctx, bson.M{"_id": key}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vault.ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: get service: %w", err)
	}
	return fromServiceModel(&m)
}

func (s *Store) ListServices(ctx context.Context, opts catalog.ListOpts) ([]*catalog.Service, error) {
	filter := bson.M{}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	cur, err := s.db.Collection(colServices).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: list services: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*catalog.Service, 0)
	for cur.Next(ctx) {
		var m serviceModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		svc, err := fromServiceModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, svc)
	}
	return result, cur.Err()
}

func (s *Store) UpdateService(ctx context.Context, svc *catalog.Service) error {
	res, err := s.db.Collection(colServices).UpdateOne(ctx,
		bson.M{"_id": svc.Key},
		bson.M{"$set": bson.M{
			"unit_cost":      svc.UnitCost.Int64(),
			"active":         svc.Active,
			"total_consumed": svc.TotalConsumed.Int64(),
			"updated_at":     svc.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("vault/mongo: update service: %w", err)
	}
	if res.MatchedCount == 0 {
		return vault.ErrServiceNotFound
	}
	return nil
}

// ==================== Consumption log ====================

func (s *Store) AppendUsage(ctx context.Context, e *usage.Event) error {
	if _, err := s.db.Collection(colUsageEvents).InsertOne(ctx, toUsageEventModel(e)); err != nil {
		return fmt.Errorf("vault/mongo: append usage: %w", err)
	}
	return nil
}

func (s *Store) QueryUsage(ctx context.Context, opts usage.QueryOpts) ([]*usage.Event, error) {
	filter := bson.M{}
	if opts.Owner != "" {
		filter["owner"] = opts.Owner
	}
	if opts.ServiceKey != "" {
		filter["service_key"] = opts.ServiceKey
	}
	if ts := timeRange(opts.Start, opts.End); ts != nil {
		filter["ts"] = ts
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colUsageEvents).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: query usage: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*usage.Event, 0)
	for cur.Next(ctx) {
		var m usageEventModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		e, err := fromUsageEventModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, cur.Err()
}

// ==================== Treasury Store ====================

func (s *Store) GetTreasuryState(ctx context.Context) (*treasury.State, error) {
	var m treasuryStateModel
	err := s.db.Collection(colTreasuryState).
		FindOne(ctx, bson.M{"_id": singletonID}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: get treasury state: %w", err)
	}
	return fromTreasuryStateModel(&m), nil
}

func (s *Store) SaveTreasuryState(ctx context.Context, st *treasury.State) error {
	_, err := s.db.Collection(colTreasuryState).ReplaceOne(ctx,
		bson.M{"_id": singletonID}, toTreasuryStateModel(st),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("vault/mongo: save treasury state: %w", err)
	}
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c *treasury.Category) error {
	_, err := s.db.Collection(colCategories).InsertOne(ctx, toCategoryModel(c))
	if mongo.IsDuplicateKeyError(err) {
		return vault.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("vault/mongo: create category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, key string) (*treasury.Category, error) {
	var m categoryModel
	err := s.db.Collection(colCategories).
		FindOne(ctx, bson.M{"_id": key}).
		Decode(&m)
	if isNoDocuments(err) {
		return nil, vault.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: get category: %w", err)
	}
	return fromCategoryModel(&m)
}

func (s *Store) ListCategories(ctx context.Context, opts treasury.CategoryListOpts) ([]*treasury.Category, error) {
	filter := bson.M{}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	cur, err := s.db.Collection(colCategories).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: list categories: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*treasury.Category, 0)
	for cur.Next(ctx) {
		var m categoryModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		c, err := fromCategoryModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, cur.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, c *treasury.Category) error {
	res, err := s.db.Collection(colCategories).UpdateOne(ctx,
		bson.M{"_id": c.Key},
		bson.M{"$set": bson.M{
			"period_limit":    c.PeriodLimit.Int64(),
			"total_allocated": c.TotalAllocated.Int64(),
			"active":          c.Active,
			"updated_at":      c.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("vault/mongo: update category: %w", err)
	}
	if res.MatchedCount == 0 {
		return vault.ErrCategoryNotFound
	}
	return nil
}

func (s *Store) PeriodAllocated(ctx context.Context, period uint64, categoryKey string) (types.Amount, error) {
	var m periodAllocationModel
	err := s.db.Collection(colPeriodAllocations).
		FindOne(ctx, bson.M{"period": period, "category_key": categoryKey}).
		Decode(&m)
	if isNoDocuments(err) {
		return types.Zero, nil
	}
	if err != nil {
		return types.Zero, fmt.Errorf("vault/mongo: get period allocation: %w", err)
	}
	return types.Amount(m.Allocated), nil
}

func (s *Store) AddPeriodAllocated(ctx context.Context, period uint64, categoryKey string, amount types.Amount) error {
	_, err := s.db.Collection(colPeriodAllocations).UpdateOne(ctx,
		bson.M{"period": period, "category_key": categoryKey},
		bson.M{"$inc": bson.M{"allocated": amount.Int64()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("vault/mongo: add period allocation: %w", err)
	}
	return nil
}

func (s *Store) AppendAllocation(ctx context.Context, a *treasury.Allocation) error {
	if _, err := s.db.Collection(colAllocations).InsertOne(ctx, toAllocationModel(a)); err != nil {
		return fmt.Errorf("vault/mongo: append allocation: %w", err)
	}
	return nil
}

func (s *Store) ListAllocations(ctx context.Context, opts treasury.RecordOpts) ([]*treasury.Allocation, error) {
	filter := bson.M{}
	if opts.CategoryKey != "" {
		filter["category_key"] = opts.CategoryKey
	}
	if ts := timeRange(opts.Start, opts.End); ts != nil {
		filter["ts"] = ts
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colAllocations).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: list allocations: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*treasury.Allocation, 0)
	for cur.Next(ctx) {
		var m allocationModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		a, err := fromAllocationModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, cur.Err()
}

func (s *Store) AppendWithdrawal(ctx context.Context, w *treasury.Withdrawal) error {
	if _, err := s.db.Collection(colWithdrawals).InsertOne(ctx, toWithdrawalModel(w)); err != nil {
		return fmt.Errorf("vault/mongo: append withdrawal: %w", err)
	}
	return nil
}

func (s *Store) ListWithdrawals(ctx context.Context, opts treasury.RecordOpts) ([]*treasury.Withdrawal, error) {
	filter := bson.M{}
	if ts := timeRange(opts.Start, opts.End); ts != nil {
		filter["ts"] = ts
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colWithdrawals).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: list withdrawals: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*treasury.Withdrawal, 0)
	for cur.Next(ctx) {
		var m withdrawalModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		w, err := fromWithdrawalModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, cur.Err()
}

// ==================== Authority Store ====================

func (s *Store) GrantAuthority(ctx context.Context, g *authority.Grant) error {
	_, err := s.db.Collection(colAuthorityGrants).ReplaceOne(ctx,
		bson.M{"role": string(g.Role), "principal": g.Principal},
		toGrantModel(g),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("vault/mongo: grant authority: %w", err)
	}
	return nil
}

func (s *Store) RevokeAuthority(ctx context.Context, role authority.Role, principal string) error {
	_, err := s.db.Collection(colAuthorityGrants).DeleteOne(ctx,
		bson.M{"role": string(role), "principal": principal})
	if err != nil {
		return fmt.Errorf("vault/mongo: revoke authority: %w", err)
	}
	return nil
}

func (s *Store) HasAuthority(ctx context.Context, role authority.Role, principal string) (bool, error) {
	count, err := s.db.Collection(colAuthorityGrants).CountDocuments(ctx,
		bson.M{"role": string(role), "principal": principal})
	if err != nil {
		return false, fmt.Errorf("vault/mongo: has authority: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListAuthorities(ctx context.Context, role authority.Role) ([]*authority.Grant, error) {
	cur, err := s.db.Collection(colAuthorityGrants).Find(ctx,
		bson.M{"role": string(role)},
		options.Find().SetSort(bson.D{{Key: "principal", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("vault/mongo: list authorities: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*authority.Grant, 0)
	for cur.Next(ctx) {
		var m grantModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		g, err := fromGrantModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, cur.Err()
}

// ==================== Helpers ====================

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func timeRange(start, end time.Time) bson.M {
	m := bson.M{}
	if !start.IsZero() {
		m["$gte"] = start
	}
	if !end.IsZero() {
		m["$lt"] = end
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
