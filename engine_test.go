package bastion

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store/memory"
)

// countingStore counts role reads and can be switched to fail.
type countingStore struct {
	*memory.Store
	roleReads atomic.Int64
	fail      atomic.Bool
}

var errBackend = errors.New("backend down")

func (s *countingStore) GetRoles(ctx context.Context, ids []id.RoleID) ([]*role.Role, error) {
	s.roleReads.Add(1)
	if s.fail.Load() {
		return nil, errBackend
	}
	return s.Store.GetRoles(ctx, ids)
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *countingStore) {
	t.Helper()
	s := &countingStore{Store: memory.New()}
	eng, err := NewEngine(append([]Option{WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func mustPerm(t *testing.T, eng *Engine, name string, scope Scope, res Resource) *permission.Permission {
	t.Helper()
	p, err := eng.CreatePermission(context.Background(), &permission.Permission{Name: name, Scope: scope, Resource: res})
	if err != nil {
		t.Fatalf("create permission %s: %v", name, err)
	}
	return p
}

func mustRole(t *testing.T, eng *Engine, name string, perms []id.PermissionID, parents ...id.RoleID) *role.Role {
	t.Helper()
	r, err := eng.CreateRole(context.Background(), &role.Role{Name: name, Permissions: perms, InheritsFrom: parents})
	if err != nil {
		t.Fatalf("create role %s: %v", name, err)
	}
	return r
}

func schema(target string) Resource {
	return Resource{Type: permission.ResourceSchema, Target: target}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	eng, _ := newTestEngine(t, WithConfig(Config{}))
	cfg := eng.Config()
	if cfg.CacheTTL != DefaultConfig().CacheTTL {
		t.Fatalf("expected default TTL, got %v", cfg.CacheTTL)
	}
	if cfg.OwnerField != "createdBy" {
		t.Fatalf("expected default owner field, got %q", cfg.OwnerField)
	}
}

func TestTransitiveInheritance(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	pc := mustPerm(t, eng, "content:c:delete", ScopeDelete, schema("c-only"))
	c := mustRole(t, eng, "c", []id.PermissionID{pc.ID})
	b := mustRole(t, eng, "b", nil, c.ID)
	a := mustRole(t, eng, "a", nil, b.ID)

	rp, err := eng.Resolve(ctx, []id.RoleID{a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !rp.HasSchema("c-only", ScopeDelete) {
		t.Fatalf("expected permission inherited from c, got %+v", rp.Schemas)
	}
	if len(rp.RoleIDs) != 3 {
		t.Fatalf("expected closure of 3 roles, got %v", rp.RoleIDs)
	}
}

func TestCycleSafety(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	pa := mustPerm(t, eng, "content:a:read", ScopeRead, schema("a"))
	pb := mustPerm(t, eng, "content:b:read", ScopeRead, schema("b"))
	a := mustRole(t, eng, "a", []id.PermissionID{pa.ID})
	b := mustRole(t, eng, "b", []id.PermissionID{pb.ID}, a.ID)

	// Close the cycle a -> b -> a, plus a self-edge.
	if _, err := eng.UpdateRole(ctx, a.ID, RoleUpdate{InheritsFrom: &[]id.RoleID{b.ID, a.ID}}); err != nil {
		t.Fatal(err)
	}
	s.roleReads.Store(0)

	rp, err := eng.Resolve(ctx, []id.RoleID{a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !rp.HasSchema("a", ScopeRead) || !rp.HasSchema("b", ScopeRead) {
		t.Fatalf("expected union of both roles, got %+v", rp.Schemas)
	}
	if len(rp.Schemas["a"]) != 1 || len(rp.Schemas["b"]) != 1 {
		t.Fatalf("expected each scope exactly once, got %+v", rp.Schemas)
	}
	if len(rp.RoleIDs) != 2 {
		t.Fatalf("expected each role once, got %v", rp.RoleIDs)
	}
	if n := s.roleReads.Load(); n > 2 {
		t.Fatalf("expected at most 2 batched role reads, got %d", n)
	}
}

func TestDanglingReferencesSkipped(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	p := mustPerm(t, eng, "content:posts:read", ScopeRead, schema("posts"))
	r := mustRole(t, eng, "viewer", []id.PermissionID{p.ID})

	// Write dangling references straight to the store.
	r.InheritsFrom = []id.RoleID{id.NewRoleID()}
	r.Permissions = append(r.Permissions, id.NewPermissionID())
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	eng.Invalidate(ctx)

	rp, err := eng.Resolve(ctx, []id.RoleID{r.ID, id.NewRoleID()})
	if err != nil {
		t.Fatalf("dangling references must not fail resolution: %v", err)
	}
	if !rp.HasSchema("posts", ScopeRead) {
		t.Fatal("expected existing permission to survive")
	}
}

func TestCacheIdempotence(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	p := mustPerm(t, eng, "content:posts:read", ScopeRead, schema("posts"))
	a := mustRole(t, eng, "a", []id.PermissionID{p.ID})
	b := mustRole(t, eng, "b", nil)

	first, err := eng.Resolve(ctx, []id.RoleID{a.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	reads := s.roleReads.Load()

	// Reversed order and a duplicate must hit the same entry.
	second, err := eng.Resolve(ctx, []id.RoleID{b.ID, a.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if s.roleReads.Load() != reads {
		t.Fatal("second resolve within TTL must not read the store")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected structurally equal results")
	}
}

func TestPartialInvalidation(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	a := mustRole(t, eng, "a", nil)
	b := mustRole(t, eng, "b", nil)

	if _, err := eng.Resolve(ctx, []id.RoleID{a.ID, b.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Resolve(ctx, []id.RoleID{b.ID}); err != nil {
		t.Fatal(err)
	}

	eng.Invalidate(ctx, a.ID)

	reads := s.roleReads.Load()
	if _, err := eng.Resolve(ctx, []id.RoleID{b.ID}); err != nil {
		t.Fatal(err)
	}
	if s.roleReads.Load() != reads {
		t.Fatal("entry without the invalidated role must stay cached")
	}
	if _, err := eng.Resolve(ctx, []id.RoleID{a.ID, b.ID}); err != nil {
		t.Fatal(err)
	}
	if s.roleReads.Load() == reads {
		t.Fatal("entry containing the invalidated role must be recomputed")
	}
}

func TestMutationInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	viewer := mustRole(t, eng, "viewer", nil)
	ok, err := eng.HasSchemaPermission(ctx, []id.RoleID{viewer.ID}, "posts", ScopeRead)
	if err != nil || ok {
		t.Fatalf("expected deny before grant, got %v %v", ok, err)
	}

	p := mustPerm(t, eng, "content:posts:read", ScopeRead, schema("posts"))
	if _, err := eng.AssignPermissions(ctx, viewer.ID, []id.PermissionID{p.ID}); err != nil {
		t.Fatal(err)
	}

	ok, err = eng.HasSchemaPermission(ctx, []id.RoleID{viewer.ID}, "posts", ScopeRead)
	if err != nil || !ok {
		t.Fatalf("expected allow after assignment, got %v %v", ok, err)
	}
}

func TestGlobalBypass(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	g := mustPerm(t, eng, "admin:*:read", ScopeRead, Resource{Type: permission.ResourceGlobal})
	rec := mustPerm(t, eng, "content:posts:read-own", ScopeRead, Resource{
		Type:       permission.ResourceRecord,
		Target:     "anything",
		Conditions: []Condition{{Field: "createdBy", Operator: permission.OpEquals, Value: permission.CurrentUser}},
	})
	r := mustRole(t, eng, "reader", []id.PermissionID{g.ID, rec.ID})

	res, err := eng.Check(ctx, &CheckRequest{
		RoleIDs: []id.RoleID{r.ID},
		Scope:   ScopeRead,
		Target:  "anything",
		Context: &RecordContext{Record: map[string]any{"createdBy": "someone"}, CurrentUserID: "u1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed || res.MatchedBy != MatchGlobal {
		t.Fatalf("expected global allow, got %+v", res)
	}

	ok, _ := eng.HasPermission(ctx, []id.RoleID{r.ID}, ScopeUpdate, "anything", nil)
	if ok {
		t.Fatal("global read must not grant update")
	}
}

func newNarrowingFixture(t *testing.T) (*Engine, []id.RoleID) {
	t.Helper()
	eng, _ := newTestEngine(t)
	su := mustPerm(t, eng, "content:posts:update", ScopeUpdate, schema("posts"))
	ru := mustPerm(t, eng, "content:posts:update-own", ScopeUpdate, Resource{
		Type:       permission.ResourceRecord,
		Target:     "posts",
		Conditions: []Condition{{Field: "createdBy", Operator: permission.OpEquals, Value: permission.CurrentUser}},
	})
	r := mustRole(t, eng, "author", []id.PermissionID{su.ID, ru.ID})
	return eng, []id.RoleID{r.ID}
}

func TestRecordNarrowing(t *testing.T) {
	ctx := context.Background()
	eng, roles := newNarrowingFixture(t)
	rec := map[string]any{"createdBy": "u1"}

	ok, err := eng.HasPermission(ctx, roles, ScopeUpdate, "posts", &RecordContext{Record: rec, CurrentUserID: "u1"})
	if err != nil || !ok {
		t.Fatalf("owner should be allowed, got %v %v", ok, err)
	}

	res, err := eng.Check(ctx, &CheckRequest{
		RoleIDs: roles, Scope: ScopeUpdate, Target: "posts",
		Context: &RecordContext{Record: rec, CurrentUserID: "u2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Decision != DecisionDenyCondition {
		t.Fatalf("non-owner should be denied by condition, got %+v", res)
	}

	// Without a record the schema grant stands.
	ok, _ = eng.HasPermission(ctx, roles, ScopeUpdate, "posts", nil)
	if !ok {
		t.Fatal("schema grant without record should allow")
	}
}

func TestRecordNarrowingAcrossScopes(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	sr := mustPerm(t, eng, "content:posts:read", ScopeRead, schema("posts"))
	ru := mustPerm(t, eng, "content:posts:update-own", ScopeUpdate, Resource{
		Type:       permission.ResourceRecord,
		Target:     "posts",
		Conditions: []Condition{{Field: "createdBy", Operator: permission.OpEquals, Value: permission.CurrentUser}},
	})
	r := mustRole(t, eng, "r", []id.PermissionID{sr.ID, ru.ID})

	// Record rules exist for posts but none with scope read: the read grant
	// is narrowed to nothing when a record is supplied.
	ok, err := eng.HasPermission(ctx, []id.RoleID{r.ID}, ScopeRead, "posts",
		&RecordContext{Record: map[string]any{"createdBy": "u1"}, CurrentUserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("record rules of another scope still narrow the schema grant")
	}
}

func TestRecordOnlyPermission(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	ru := mustPerm(t, eng, "content:posts:delete-own", ScopeDelete, Resource{
		Type:       permission.ResourceRecord,
		Target:     "posts",
		Conditions: []Condition{{Field: "createdBy", Operator: permission.OpEquals, Value: permission.CurrentUser}},
	})
	r := mustRole(t, eng, "r", []id.PermissionID{ru.ID})
	roles := []id.RoleID{r.ID}

	res, _ := eng.Check(ctx, &CheckRequest{RoleIDs: roles, Scope: ScopeDelete, Target: "posts"})
	if res.Allowed || res.Decision != DecisionDenyRecordRequired {
		t.Fatalf("expected record required, got %+v", res)
	}

	res, _ = eng.Check(ctx, &CheckRequest{
		RoleIDs: roles, Scope: ScopeDelete, Target: "posts",
		Context: &RecordContext{Record: map[string]any{"createdBy": "u1"}, CurrentUserID: "u1"},
	})
	if !res.Allowed || res.MatchedBy != MatchRecord {
		t.Fatalf("expected record allow, got %+v", res)
	}

	res, _ = eng.Check(ctx, &CheckRequest{RoleIDs: roles, Scope: ScopeCreate, Target: "posts"})
	if res.Decision != DecisionDenyNoPerms {
		t.Fatalf("expected no perms, got %+v", res)
	}
}

func TestFieldReadonlyLift(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	fr := mustPerm(t, eng, "content:posts:read-title", ScopeRead, Resource{
		Type: permission.ResourceField, Target: "posts", Fields: []string{"title", "slug"},
	})
	r := mustRole(t, eng, "r", []id.PermissionID{fr.ID})

	rp, err := eng.Resolve(ctx, []id.RoleID{r.ID})
	if err != nil {
		t.Fatal(err)
	}
	if got := rp.Fields["posts"]["title"]; got != (FieldPermission{Visible: true, Readonly: true}) {
		t.Fatalf("expected visible readonly, got %+v", got)
	}

	fu := mustPerm(t, eng, "content:posts:update-title", ScopeUpdate, Resource{
		Type: permission.ResourceField, Target: "posts", Fields: []string{"title"},
	})
	if _, err := eng.AssignPermissions(ctx, r.ID, []id.PermissionID{fu.ID}); err != nil {
		t.Fatal(err)
	}

	rp, err = eng.Resolve(ctx, []id.RoleID{r.ID})
	if err != nil {
		t.Fatal(err)
	}
	if got := rp.Fields["posts"]["title"]; got != (FieldPermission{Visible: true, Readonly: false}) {
		t.Fatalf("update must lift readonly, got %+v", got)
	}
	if got := rp.Fields["posts"]["slug"]; !got.Readonly {
		t.Fatal("untouched field must stay readonly")
	}
}

func TestAggregateOrderIndependence(t *testing.T) {
	read := &permission.Permission{ID: id.NewPermissionID(), Scope: ScopeRead, Resource: Resource{
		Type: permission.ResourceField, Target: "posts", Fields: []string{"title"},
	}}
	update := &permission.Permission{ID: id.NewPermissionID(), Scope: ScopeUpdate, Resource: Resource{
		Type: permission.ResourceField, Target: "posts", Fields: []string{"title"},
	}}
	create := &permission.Permission{ID: id.NewPermissionID(), Scope: ScopeCreate, Resource: schema("posts")}
	del := &permission.Permission{ID: id.NewPermissionID(), Scope: ScopeDelete, Resource: schema("posts")}

	a := Aggregate(nil, []*permission.Permission{read, update, create, del})
	b := Aggregate(nil, []*permission.Permission{del, update, create, read})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("aggregation depends on order:\n%+v\n%+v", a, b)
	}
	if a.Fields["posts"]["title"].Readonly {
		t.Fatal("update must win regardless of order")
	}
	if !reflect.DeepEqual(a.Schemas["posts"], []Scope{ScopeCreate, ScopeDelete}) {
		t.Fatalf("expected canonical scope order, got %v", a.Schemas["posts"])
	}
}

func TestAggregateSkipsSchemaWithoutTarget(t *testing.T) {
	p := &permission.Permission{ID: id.NewPermissionID(), Scope: ScopeRead, Resource: Resource{Type: permission.ResourceSchema}}
	rp := Aggregate(nil, []*permission.Permission{p})
	if len(rp.Schemas) != 0 {
		t.Fatalf("expected no schema buckets, got %+v", rp.Schemas)
	}
}

func TestAggregateRecordRulePerCondition(t *testing.T) {
	p := &permission.Permission{ID: id.NewPermissionID(), Scope: ScopeUpdate, Resource: Resource{
		Type:   permission.ResourceRecord,
		Target: "posts",
		Conditions: []Condition{
			{Field: "createdBy", Operator: permission.OpEquals, Value: permission.CurrentUser},
			{Field: "tags", Operator: permission.OpIn, Value: "public"},
		},
	}}
	rp := Aggregate(nil, []*permission.Permission{p, p})
	if n := len(rp.Records["posts"]); n != 4 {
		t.Fatalf("expected one rule per condition without dedup, got %d", n)
	}
}

func TestEndToEndViewerEditor(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	read := mustPerm(t, eng, "content:*:read", ScopeRead, schema("*"))
	update := mustPerm(t, eng, "content:*:update", ScopeUpdate, schema("*"))
	viewer := mustRole(t, eng, "viewer", []id.PermissionID{read.ID})
	editor := mustRole(t, eng, "editor", []id.PermissionID{update.ID}, viewer.ID)

	rp, err := eng.Resolve(ctx, []id.RoleID{editor.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rp.Schemas, map[string][]Scope{"*": {ScopeRead, ScopeUpdate}}) {
		t.Fatalf("unexpected schemas %+v", rp.Schemas)
	}

	ok, err := eng.HasSchemaPermission(ctx, []id.RoleID{editor.ID}, "*", ScopeDelete)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("editor must not delete")
	}

	// Literal targets by default: "*" does not cover "posts".
	ok, _ = eng.HasSchemaPermission(ctx, []id.RoleID{editor.ID}, "posts", ScopeRead)
	if ok {
		t.Fatal("wildcard target must not match without MatchWildcardTargets")
	}
}

func TestWildcardTargets(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.MatchWildcardTargets = true
	eng, _ := newTestEngine(t, WithConfig(cfg))

	read := mustPerm(t, eng, "content:*:read", ScopeRead, schema("*"))
	blog := mustPerm(t, eng, "content:blog:update", ScopeUpdate, schema("blog.*"))
	r := mustRole(t, eng, "r", []id.PermissionID{read.ID, blog.ID})
	roles := []id.RoleID{r.ID}

	if ok, _ := eng.HasSchemaPermission(ctx, roles, "posts", ScopeRead); !ok {
		t.Fatal("* should cover posts")
	}
	if ok, _ := eng.HasSchemaPermission(ctx, roles, "blog.posts", ScopeUpdate); !ok {
		t.Fatal("blog.* should cover blog.posts")
	}
	if ok, _ := eng.HasSchemaPermission(ctx, roles, "shop.items", ScopeUpdate); ok {
		t.Fatal("blog.* must not cover shop.items")
	}
}

func TestEmptyRoleSet(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	res, err := eng.Check(ctx, &CheckRequest{Scope: ScopeRead, Target: "posts"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Decision != DecisionDenyNoRoles {
		t.Fatalf("expected deny_no_roles, got %+v", res)
	}
	rp, err := eng.Resolve(ctx, nil)
	if err != nil || !rp.IsEmpty() {
		t.Fatalf("expected empty permissions, got %+v %v", rp, err)
	}
	if s.roleReads.Load() != 0 {
		t.Fatal("empty role set must not touch the store")
	}
}

func TestResolutionFailsClosed(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	g := mustPerm(t, eng, "admin:*:read", ScopeRead, Resource{Type: permission.ResourceGlobal})
	r := mustRole(t, eng, "admin", []id.PermissionID{g.ID})

	s.fail.Store(true)
	ok, err := eng.HasPermission(ctx, []id.RoleID{r.ID}, ScopeRead, "posts", nil)
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if ok {
		t.Fatal("store failure must never allow")
	}

	// The failure must not have been cached.
	s.fail.Store(false)
	ok, err = eng.HasPermission(ctx, []id.RoleID{r.ID}, ScopeRead, "posts", nil)
	if err != nil || !ok {
		t.Fatalf("expected recovery after backend returns, got %v %v", ok, err)
	}
}

func TestConcurrentResolveSharesComputation(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	p := mustPerm(t, eng, "content:posts:read", ScopeRead, schema("posts"))
	r := mustRole(t, eng, "r", []id.PermissionID{p.ID})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := eng.HasSchemaPermission(ctx, []id.RoleID{r.ID}, "posts", ScopeRead)
			if err != nil || !ok {
				t.Errorf("expected allow, got %v %v", ok, err)
			}
			if i%8 == 0 {
				eng.Invalidate(ctx, r.ID)
			}
		}()
	}
	wg.Wait()
	if s.roleReads.Load() == 0 {
		t.Fatal("expected at least one store read")
	}
}

// gatedStore parks role reads until release is closed once armed.
type gatedStore struct {
	*memory.Store
	armed   atomic.Bool
	entered chan struct{}
	once    sync.Once
	release chan struct{}
}

func (s *gatedStore) GetRoles(ctx context.Context, ids []id.RoleID) ([]*role.Role, error) {
	if s.armed.Load() {
		s.once.Do(func() { close(s.entered) })
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.Store.GetRoles(ctx, ids)
}

func TestCancelledCallerDoesNotFailSharedResolve(t *testing.T) {
	s := &gatedStore{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	eng, err := NewEngine(WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	p := mustPerm(t, eng, "content:posts:read", ScopeRead, schema("posts"))
	r := mustRole(t, eng, "r", []id.PermissionID{p.ID})
	roles := []id.RoleID{r.ID}
	s.armed.Store(true)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := eng.Resolve(leaderCtx, roles)
		leaderErr <- err
	}()
	<-s.entered

	type outcome struct {
		rp  *ResolvedPermissions
		err error
	}
	follower := make(chan outcome, 1)
	go func() {
		rp, err := eng.Resolve(context.Background(), roles)
		follower <- outcome{rp, err}
	}()
	// Let the follower join the in-flight computation.
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("leader: want context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled leader did not return while the store was blocked")
	}

	close(s.release)
	got := <-follower
	if got.err != nil {
		t.Fatalf("follower failed with the leader's cancellation: %v", got.err)
	}
	if !got.rp.HasSchema("posts", ScopeRead) {
		t.Fatal("follower: expected posts read")
	}
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	eng, roles := newNarrowingFixture(t)

	err := eng.Enforce(ctx, &CheckRequest{RoleIDs: roles, Scope: ScopeDelete, Target: "posts"})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if err := eng.Enforce(ctx, &CheckRequest{RoleIDs: roles, Scope: ScopeUpdate, Target: "posts"}); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}

func TestResolveForRequest(t *testing.T) {
	ctx := context.Background()
	eng, roles := newNarrowingFixture(t)

	if _, err := eng.ResolveForRequest(ctx); !errors.Is(err, ErrNoSubject) {
		t.Fatalf("expected ErrNoSubject, got %v", err)
	}

	ctx = WithSubject(ctx, Subject{UserID: "u1", RoleIDs: roles})
	rp, err := eng.ResolveForRequest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !rp.HasSchema("posts", ScopeUpdate) {
		t.Fatal("expected subject's permissions")
	}

	attached := newResolvedPermissions()
	got, err := eng.ResolveForRequest(WithResolved(ctx, attached))
	if err != nil || got != attached {
		t.Fatal("expected attached permissions to be reused")
	}
}

func TestCanAccessOwned(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.OwnerField = "authorId"
	eng, _ := newTestEngine(t, WithConfig(cfg))

	su := mustPerm(t, eng, "content:posts:update", ScopeUpdate, schema("posts"))
	r := mustRole(t, eng, "author", []id.PermissionID{su.ID})
	roles := []id.RoleID{r.ID}
	rec := map[string]any{"authorId": "u1"}

	if ok, _ := eng.CanAccessOwned(ctx, roles, ScopeUpdate, "posts", rec, "u1"); !ok {
		t.Fatal("owner with schema grant should be allowed")
	}
	if ok, _ := eng.CanAccessOwned(ctx, roles, ScopeUpdate, "posts", rec, "u2"); ok {
		t.Fatal("non-owner should be denied")
	}
	if ok, _ := eng.CanAccessOwned(ctx, roles, ScopeDelete, "posts", rec, "u1"); ok {
		t.Fatal("ownership does not add scopes")
	}
}

func TestInitialized(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	ok, err := eng.Initialized(ctx)
	if err != nil || ok {
		t.Fatalf("expected uninitialized, got %v %v", ok, err)
	}
	mustRole(t, eng, "viewer", nil)
	ok, err = eng.Initialized(ctx)
	if err != nil || !ok {
		t.Fatalf("expected initialized, got %v %v", ok, err)
	}
}
