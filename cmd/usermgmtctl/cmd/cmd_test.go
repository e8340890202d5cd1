package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/cirestech/usermgmt/internal/api"
	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
	"github.com/cirestech/usermgmt/internal/core/service"
	"github.com/cirestech/usermgmt/internal/infrastructure/config"
	"github.com/cirestech/usermgmt/internal/infrastructure/db/memory"
)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

type fixture struct {
	url   string
	users *service.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	repo := memory.NewUserRepository()
	hasher := service.NewPasswordHasher(bcrypt.MinCost)
	tokens, err := service.NewTokenManager("cli-test-secret-cli-test-secret-cli", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	users := service.NewUserService(repo, hasher, log)
	if err := users.EnsureDefaultAdmin(context.Background(), ports.DefaultAdmin{
		Username: "admin", Email: "admin@localhost.com", Password: "admin123",
	}); err != nil {
		t.Fatalf("EnsureDefaultAdmin: %v", err)
	}

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Auth:   service.NewAuthService(repo, hasher, tokens, nil, log),
		Users:  users,
		Import: service.NewImportService(repo, hasher, log),
		Tokens: tokens,
		Log:    log,
	}))
	t.Cleanup(srv.Close)
	return &fixture{url: srv.URL, users: users}
}

func (f *fixture) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), ports.CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return u
}

// run executes one command tree and returns what it wrote to its out stream.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	err := root.Execute()
	a.close()
	return out.String(), err
}

func TestServerDefaultMatchesAPIPort(t *testing.T) {
	cfg, err := config.LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "0123456789abcdef0123456789abcdef",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	flag := newRootCmd(&app{}).PersistentFlags().Lookup("server")
	if want := "http://localhost:" + cfg.Port; flag.DefValue != want {
		t.Fatalf("--server default = %q, want %q", flag.DefValue, want)
	}
}

func TestCredentialsRequired(t *testing.T) {
	f := newFixture(t)
	t.Setenv(envUsername, "")
	t.Setenv(envPassword, "")

	_, err := run(t, "", "--server", f.url, "stats")
	if !errors.Is(err, errCredentialsRequired) {
		t.Fatalf("expected errCredentialsRequired, got %v", err)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	f := newFixture(t)
	t.Setenv(envUsername, "admin")
	t.Setenv(envPassword, "admin123")

	if _, err := run(t, "", "--server", f.url, "stats"); err != nil {
		t.Fatalf("stats: %v", err)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	f := newFixture(t)
	t.Setenv(envUsername, "admin")
	t.Setenv(envPassword, "wrong")

	if _, err := run(t, "", "--server", f.url, "-p", "admin123", "stats"); err != nil {
		t.Fatalf("flag password should win over env: %v", err)
	}
}

func TestUsersCommands(t *testing.T) {
	f := newFixture(t)
	bob := f.createUser(t, "bob")
	admin := []string{"--server", f.url, "-u", "admin", "-p", "admin123"}

	if _, err := run(t, "", append(admin, "users", "role", bob.ID, "admin")...); err != nil {
		t.Fatalf("users role: %v", err)
	}
	if _, err := run(t, "", append(admin, "users", "disable", bob.ID)...); err != nil {
		t.Fatalf("users disable: %v", err)
	}
	if _, err := run(t, "", append(admin, "users", "update", bob.ID, "--company", "Initech")...); err != nil {
		t.Fatalf("users update: %v", err)
	}

	got, err := f.users.FindByID(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Role != domain.RoleAdmin || got.Enabled || got.Company != "Initech" {
		t.Fatalf("changes not applied: %+v", got)
	}

	if _, err := run(t, "", append(admin, "users", "delete", bob.ID)...); err != nil {
		t.Fatalf("users delete: %v", err)
	}
	if _, err := f.users.FindByID(context.Background(), bob.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user deleted, got %v", err)
	}
}

func TestUsersListForbiddenForRegularUser(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "carol")

	_, err := run(t, "", "--server", f.url, "-u", "carol", "-p", "secret1", "users", "list")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected a 403 error, got %v", err)
	}
}

func TestRegisterAndMe(t *testing.T) {
	f := newFixture(t)
	base := []string{"--server", f.url, "-u", "dave", "-p", "secret1"}

	if _, err := run(t, "", append(base, "register", "--email", "dave@example.com", "--first-name", "Dave")...); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := run(t, "", append(base, "me", "--city", "Oslo")...); err != nil {
		t.Fatalf("me: %v", err)
	}

	u, err := f.users.FindByUsername(context.Background(), "dave")
	if err != nil || u.City != "Oslo" || u.FirstName != "Dave" {
		t.Fatalf("unexpected profile: %+v %v", u, err)
	}
}

func TestImportAndExport(t *testing.T) {
	f := newFixture(t)
	path := t.TempDir() + "/users.json"
	records := `[{"username":"u1","email":"u1@example.com","password":"pw1234"},
		{"username":"u2","email":"u2@example.com","password":"pw1234"}]`
	if err := os.WriteFile(path, []byte(records), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	admin := []string{"--server", f.url, "-u", "admin", "-p", "admin123"}

	if _, err := run(t, "", append(admin, "import", path)...); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, err := run(t, "", append(admin, "export", "--search", "u")...)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil || len(rows) != 3 {
		t.Fatalf("expected header and two rows, got %v %v", rows, err)
	}
}

func TestShell_KeepsOneSession(t *testing.T) {
	f := newFixture(t)
	erin := f.createUser(t, "erin")

	input := strings.Join([]string{
		"users role " + erin.ID + " admin",
		"login admin admin123",
		"whoami",
		"users role " + erin.ID + " admin",
		"logout",
		"users disable " + erin.ID,
		"exit",
	}, "\n")
	if _, err := run(t, input, "--server", f.url, "shell"); err != nil {
		t.Fatalf("shell: %v", err)
	}

	got, _ := f.users.FindByID(context.Background(), erin.ID)
	if got.Role != domain.RoleAdmin {
		t.Fatalf("role change made after login should apply")
	}
	if !got.Enabled {
		t.Fatalf("command after logout must not run authenticated")
	}
}

func TestProfileFlags_OnlyChanged(t *testing.T) {
	var pf profileFlags
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	pf.register(cmd)

	if err := cmd.ParseFlags([]string{"--city", "Rome", "--mobile", ""}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	up, ok := pf.toUpdate(cmd)
	if !ok {
		t.Fatalf("expected an update")
	}
	if up.City == nil || *up.City != "Rome" || up.Mobile == nil || *up.Mobile != "" {
		t.Fatalf("changed flags missing: %+v", up)
	}
	if up.Email != nil || up.Company != nil {
		t.Fatalf("untouched flags must stay nil: %+v", up)
	}
}

func TestLoginRequest(t *testing.T) {
	if r := loginRequest("a@example.com", "x"); r.Email != "a@example.com" || r.Username != "" {
		t.Fatalf("email identifier: %+v", r)
	}
	if r := loginRequest("alice", "x"); r.Username != "alice" || r.Email != "" {
		t.Fatalf("username identifier: %+v", r)
	}
}
