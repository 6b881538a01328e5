package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"landmarket/notify"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:    "sam@example.com",
		Password: "supersafe",
		FullName: "Sam Seller",
		Role:     RoleSeller,
	}

	ctx := context.Background()
	user, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if user.Email != req.Email {
		t.Fatalf("expected email %q got %q", req.Email, user.Email)
	}
	if user.Role != RoleSeller {
		t.Fatalf("register: expected role %s got %s", RoleSeller, user.Role)
	}
	if !user.Active {
		t.Fatal("register: expected new account to be active")
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.User.ID != user.ID {
		t.Fatalf("login: expected user id %q got %q", user.ID, resp.User.ID)
	}

	tokenUserID, tokenRole, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if tokenUserID != user.ID {
		t.Fatalf("verify token: expected %q got %q", user.ID, tokenUserID)
	}
	if tokenRole != RoleSeller {
		t.Fatalf("verify token: expected role %s got %s", RoleSeller, tokenRole)
	}
}

func TestService_RegisterSendsWelcome(t *testing.T) {
	repo := newFakeRepository()
	recorder := &notify.Recorder{}
	svc := NewService(repo, "test-secret").WithNotifier(recorder)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "bea@example.com",
		Password: "strongpassword",
		FullName: "Bea Buyer",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(recorder.Events) != 1 {
		t.Fatalf("expected one welcome notification, got %d", len(recorder.Events))
	}
	ev := recorder.Events[0]
	if ev.RecipientID != user.ID || ev.Kind != notify.KindWelcome {
		t.Errorf("expected welcome to %s, got %+v", user.ID, ev)
	}
}

func TestService_RegisterDefaultsToBuyer(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "bea@example.com",
		Password: "strongpassword",
		FullName: "Bea Buyer",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleBuyer {
		t.Fatalf("expected default role %s got %s", RoleBuyer, user.Role)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "sam@example.com",
		Password: "short",
		FullName: "Sam Seller",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "",
		Password: "strongpassword",
		FullName: "",
	}); err == nil {
		t.Fatal("expected validation error for missing fields")
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "sam@example.com",
		Password: "strongpassword",
		FullName: "Sam Seller",
		Role:     "superuser",
	}); err == nil {
		t.Fatal("expected validation error for unknown role")
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:    "sam@example.com",
		Password: "strongpassword",
		FullName: "Sam Seller",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "unknown@example.com",
		Password: "irrelevant",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_SetActive(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "sam@example.com",
		Password: "strongpassword",
		FullName: "Sam Seller",
		Role:     RoleSeller,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	disabled, err := svc.SetActive(context.Background(), user.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if disabled.Active {
		t.Fatal("expected account to be inactive")
	}

	// A disabled account can still log in; the deny happens at authorization.
	if _, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "strongpassword"}); err != nil {
		t.Fatalf("login after deactivate: %v", err)
	}

	if _, err := svc.SetActive(context.Background(), "missing", true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

type fakeRepository struct {
	usersByEmail map[string]User
	usersByID    map[string]User
	nextID       int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		usersByEmail: make(map[string]User),
		usersByID:    make(map[string]User),
		nextID:       1,
	}
}

func (f *fakeRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if _, exists := f.usersByEmail[strings.ToLower(params.Email)]; exists {
		return User{}, ErrDuplicateEmail
	}

	id := fmt.Sprintf("user-%d", f.nextID)
	f.nextID++

	user := User{
		ID:           id,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	f.usersByEmail[strings.ToLower(user.Email)] = user
	f.usersByID[user.ID] = user

	return user, nil
}

func (f *fakeRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := f.usersByEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) GetUserByID(ctx context.Context, userID string) (User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) SetActive(ctx context.Context, userID string, active bool) (User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	user.Active = active
	user.UpdatedAt = time.Now().UTC()
	f.usersByID[userID] = user
	f.usersByEmail[strings.ToLower(user.Email)] = user
	return user, nil
}

func (f *fakeRepository) ListAdmins(ctx context.Context) ([]User, error) {
	admins := []User{}
	for _, user := range f.usersByID {
		if user.Role == RoleAdmin && user.Active {
			admins = append(admins, user)
		}
	}
	return admins, nil
}
