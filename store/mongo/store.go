// Package mongo provides a MongoDB implementation of the Bastion composite
// store using grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store"
)

// Collection name constants.
const (
	colRoles       = "bastion_roles"
	colPermissions = "bastion_permissions"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Bastion store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all bastion collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("bastion/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRoles: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "is_system", Value: 1}}},
		},
		colPermissions: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "resource.type", Value: 1}, {Key: "resource.target", Value: 1}}},
			{Keys: bson.D{{Key: "scope", Value: 1}}},
		},
	}
}

func searchFilter(f bson.M, search string) {
	if search != "" {
		f["name"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	if _, err := s.mdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	return s.findRole(ctx, bson.M{"_id": roleID.String()}, roleID.String())
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*role.Role, error) {
	return s.findRole(ctx, bson.M{"name": name}, fmt.Sprintf("%q", name))
}

func (s *Store) findRole(ctx context.Context, filter bson.M, ref string) (*role.Role, error) {
	var m roleModel
	if err := s.mdb.NewFind(&m).Filter(filter).Scan(ctx); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", ref, store.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoles(ctx context.Context, ids []id.RoleID) ([]*role.Role, error) {
	if len(ids) == 0 {
		return []*role.Role{}, nil
	}
	var models []roleModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": id.Strings(ids)}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: get roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	f := bson.M{"_id": roleID.String()}
	n, err := s.mdb.NewFind((*roleModel)(nil)).Filter(f).Count(ctx)
	if err != nil {
		return fmt.Errorf("bastion: lookup role: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	if _, err := s.mdb.NewDelete((*roleModel)(nil)).Filter(f).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: delete role: %w", err)
	}
	return nil
}

func roleListFilter(filter *role.ListFilter) bson.M {
	f := bson.M{}
	if filter != nil {
		if filter.IsSystem != nil {
			f["is_system"] = *filter.IsSystem
		}
		searchFilter(f, filter.Search)
	}
	return f
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.mdb.NewFind(&models).
		Filter(roleListFilter(filter)).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(roleListFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count roles: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	if _, err := s.mdb.NewInsert(permissionToModel(p)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create permission: %w", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	return s.findPermission(ctx, bson.M{"_id": permID.String()}, permID.String())
}

func (s *Store) GetPermissionByName(ctx context.Context, name string) (*permission.Permission, error) {
	return s.findPermission(ctx, bson.M{"name": name}, fmt.Sprintf("%q", name))
}

func (s *Store) findPermission(ctx context.Context, filter bson.M, ref string) (*permission.Permission, error) {
	var m permissionModel
	if err := s.mdb.NewFind(&m).Filter(filter).Scan(ctx); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %s: %w", ref, store.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get permission: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) GetPermissions(ctx context.Context, ids []id.PermissionID) ([]*permission.Permission, error) {
	if len(ids) == 0 {
		return []*permission.Permission{}, nil
	}
	var models []permissionModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": id.Strings(ids)}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: get permissions: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	m := permissionToModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update permission: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("permission %s: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	f := bson.M{"_id": permID.String()}
	n, err := s.mdb.NewFind((*permissionModel)(nil)).Filter(f).Count(ctx)
	if err != nil {
		return fmt.Errorf("bastion: lookup permission: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
	}
	if _, err := s.mdb.NewDelete((*permissionModel)(nil)).Filter(f).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: delete permission: %w", err)
	}
	return nil
}

func permissionListFilter(filter *permission.ListFilter) bson.M {
	f := bson.M{}
	if filter != nil {
		if filter.Scope != "" {
			f["scope"] = string(filter.Scope)
		}
		if filter.ResourceType != "" {
			f["resource.type"] = string(filter.ResourceType)
		}
		if filter.Target != "" {
			f["resource.target"] = filter.Target
		}
		if filter.IsSystem != nil {
			f["is_system"] = *filter.IsSystem
		}
		searchFilter(f, filter.Search)
	}
	return f
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.mdb.NewFind(&models).
		Filter(permissionListFilter(filter)).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list permissions: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*permissionModel)(nil)).
		Filter(permissionListFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count permissions: %w", err)
	}
	return count, nil
}
