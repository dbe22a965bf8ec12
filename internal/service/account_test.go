package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"strata/internal/access"
	"strata/internal/auth"
	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/services"
	"strata/internal/storage"
)

type accountTestEnv struct {
	principals *memPrincipalRepo
	groups     *memGroupRepo
	nodes      *memNodeRepo
	blobs      *storage.MemoryStore
	svc        services.AccountService
	nodeSvc    services.NodeService
}

func newAccountEnv(t *testing.T) *accountTestEnv {
	t.Helper()

	registry, err := access.NewRegistry()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenManager("test-secret", time.Hour, logger)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	principals := newMemPrincipalRepo()
	groups := newMemGroupRepo()
	nodes := newMemNodeRepo()
	blobs := storage.NewMemoryStore()

	nodeSvc := NewNodeService(nodes, passthroughTx{}, blobs, access.NewEvaluator(registry), registry, logger)
	svc := NewAccountService(principals, groups, nodeSvc, tokens, registry, logger)

	return &accountTestEnv{
		principals: principals,
		groups:     groups,
		nodes:      nodes,
		blobs:      blobs,
		svc:        svc,
		nodeSvc:    nodeSvc,
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newAccountEnv(t)

	tests := []struct {
		name string
		req  *services.RegisterRequest
	}{
		{"short username", &services.RegisterRequest{Username: "ab", Password: "secret123", Position: "Staff"}},
		{"short password", &services.RegisterRequest{Username: "alice", Password: "abc", Position: "Staff"}},
		{"unknown position", &services.RegisterRequest{Username: "alice", Password: "secret123", Position: "Intern"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.Register(context.Background(), tt.req); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestRegisterDefaultsToStaff(t *testing.T) {
	env := newAccountEnv(t)

	created, err := env.svc.Register(context.Background(), &services.RegisterRequest{
		Username: "alice", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Position != models.PositionStaff {
		t.Errorf("position = %s, want Staff", created.Position)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newAccountEnv(t)

	created, err := env.svc.Register(context.Background(), &services.RegisterRequest{
		Username: "alice", Password: "secret123", Position: "Manager",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Role != models.RoleUser {
		t.Errorf("role = %s, want user", created.Role)
	}
	if created.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}

	// duplicate usernames conflict
	_, err = env.svc.Register(context.Background(), &services.RegisterRequest{
		Username: "alice", Password: "secret456", Position: "Staff",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	result, err := env.svc.Login(context.Background(), &services.LoginRequest{
		Username: "alice", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Error("empty token")
	}
	if result.Principal.ID != created.ID {
		t.Errorf("principal id = %s, want %s", result.Principal.ID, created.ID)
	}

	// wrong password and unknown user produce the same error shape
	var unauthorized *domain.UnauthorizedError
	_, err = env.svc.Login(context.Background(), &services.LoginRequest{Username: "alice", Password: "wrong"})
	if !errors.As(err, &unauthorized) {
		t.Errorf("wrong password: expected unauthorized, got %v", err)
	}
	_, err = env.svc.Login(context.Background(), &services.LoginRequest{Username: "nobody", Password: "secret123"})
	if !errors.As(err, &unauthorized) {
		t.Errorf("unknown user: expected unauthorized, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	env := newAccountEnv(t)
	admin := adminUser("root")
	env.principals.add(admin)

	target, err := env.svc.Register(context.Background(), &services.RegisterRequest{
		Username: "alice", Password: "secret123", Position: "Staff",
	})
	if err != nil {
		t.Fatal(err)
	}

	group := &models.Group{Name: "eng"}
	if err := env.groups.Create(context.Background(), group); err != nil {
		t.Fatal(err)
	}

	// non-admins are rejected
	_, err = env.svc.UpdateUser(context.Background(), staffUser("bob"), target.ID, &services.UpdateUserRequest{})
	var forbidden *domain.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	position := "Director"
	groupPtr := &group.ID
	updated, err := env.svc.UpdateUser(context.Background(), admin, target.ID, &services.UpdateUserRequest{
		Position: &position,
		GroupID:  &groupPtr,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Position != models.PositionDirector {
		t.Errorf("position = %s, want Director", updated.Position)
	}
	if updated.GroupID == nil || *updated.GroupID != group.ID {
		t.Error("group not set")
	}

	// explicit null clears the group
	var cleared *string
	updated, err = env.svc.UpdateUser(context.Background(), admin, target.ID, &services.UpdateUserRequest{
		GroupID: &cleared,
	})
	if err != nil {
		t.Fatalf("clear group: %v", err)
	}
	if updated.GroupID != nil {
		t.Errorf("group = %v, want nil", *updated.GroupID)
	}

	// unknown positions are rejected
	bad := "Intern"
	if _, err := env.svc.UpdateUser(context.Background(), admin, target.ID, &services.UpdateUserRequest{
		Position: &bad,
	}); err == nil {
		t.Fatal("expected error for unknown position")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	env := newAccountEnv(t)
	admin := adminUser("root")
	env.principals.add(admin)

	target, err := env.svc.Register(context.Background(), &services.RegisterRequest{
		Username: "alice", Password: "secret123", Position: "Staff",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.nodeSvc.Upload(context.Background(), target, &services.UploadRequest{
		Name: "mine.txt", Content: strings.NewReader("data"),
	})
	if err != nil {
		t.Fatal(err)
	}

	// self-deletion is refused even for admins
	var validation *domain.ValidationError
	if err := env.svc.DeleteUser(context.Background(), admin, admin.ID); !errors.As(err, &validation) {
		t.Fatalf("self delete: expected validation error, got %v", err)
	}

	if err := env.svc.DeleteUser(context.Background(), admin, target.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, err := env.principals.GetByID(context.Background(), target.ID); err == nil {
		t.Error("account still exists")
	}
	owned, _ := env.nodes.ListByOwner(context.Background(), target.ID)
	if len(owned) != 0 {
		t.Errorf("account still owns %d nodes", len(owned))
	}
	if env.blobs.Len() != 0 {
		t.Errorf("blob count = %d, want 0", env.blobs.Len())
	}
}
