package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sampleapi/users-service/internal/repository"
	"github.com/sampleapi/users-service/internal/repository/contract"
	"github.com/sampleapi/users-service/migrations"
)

var (
	pool   *pgxpool.Pool
	skippy bool
)

func TestMain(m *testing.M) {
	if os.Getenv("CONTRACT_TESTS") != "1" {
		// contract tests need a live database; opt in explicitly
		skippy = true
		os.Exit(m.Run())
	}

	dsn := buildDSNFromEnv()
	if dsn == "" {
		fmt.Println("[contract] DATABASE_URL or APP_POSTGRES_* env not set; skipping")
		skippy = true
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	pool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("[contract] pgxpool new error:", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		fmt.Println("[contract] db ping error:", err)
		os.Exit(1)
	}
	if err := migrations.Up(ctx, pool); err != nil {
		fmt.Println("[contract] migrations error:", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func skipIfNeeded(t *testing.T) {
	if skippy {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and provide DB env")
	}
}

func buildDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := firstNonEmpty(os.Getenv("APP_POSTGRES_USER"), os.Getenv("POSTGRES_USER"))
	pass := firstNonEmpty(os.Getenv("APP_POSTGRES_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"))
	host := firstNonEmpty(os.Getenv("APP_POSTGRES_HOST"), os.Getenv("POSTGRES_HOST"), "localhost")
	port := firstNonEmpty(os.Getenv("APP_POSTGRES_PORT"), os.Getenv("POSTGRES_PORT"), "5432")
	db := firstNonEmpty(os.Getenv("APP_POSTGRES_DB"), os.Getenv("POSTGRES_DB"))
	ssl := firstNonEmpty(os.Getenv("APP_POSTGRES_SSLMODE"), "disable")
	if user == "" || pass == "" || db == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// reset empties users and drops non-seeded roles so each subtest starts clean.
func reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	stmts := []string{
		"TRUNCATE TABLE user_roles, users RESTART IDENTITY CASCADE",
		"DELETE FROM roles WHERE name NOT IN ('admin', 'user')",
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			t.Fatalf("reset failed: %v", err)
		}
	}
}

func makeUserRepo(t *testing.T) (repository.UserRepository, repository.RoleRepository, func()) {
	skipIfNeeded(t)
	reset(t)
	return NewUserRepository(pool), NewRoleRepository(pool), func() { reset(t) }
}

func makeTx(t *testing.T) (repository.TxManager, repository.UserRepository, func()) {
	skipIfNeeded(t)
	reset(t)
	return NewTxManager(pool), NewUserRepository(pool), func() { reset(t) }
}

func makePinger(t *testing.T) (repository.Pinger, func()) {
	skipIfNeeded(t)
	return NewPinger(pool), func() {}
}

func TestUserRepository_PostgresContract(t *testing.T) {
	contract.RunUserRepositoryContract(t, makeUserRepo)
}

func TestRoleRepository_PostgresContract(t *testing.T) {
	contract.RunRoleRepositoryContract(t, makeUserRepo)
}

func TestTxManager_PostgresContract(t *testing.T) {
	contract.RunTxManagerContract(t, makeTx, true)
}

func TestPinger_PostgresContract(t *testing.T) {
	contract.RunPingerContract(t, makePinger)
}
