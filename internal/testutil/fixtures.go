package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fixture ids are fixed so failures are easy to correlate with the seed data.
var (
	AdminUserID           = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	MinoristaUserID       = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TransferencistaUserID = uuid.MustParse("00000000-0000-0000-0000-000000000003")

	MinoristaID       = uuid.MustParse("00000000-0000-0000-0001-000000000001")
	TransferencistaID = uuid.MustParse("00000000-0000-0000-0002-000000000001")
	BankID            = uuid.MustParse("00000000-0000-0000-0003-000000000001")
	BankAccountID     = uuid.MustParse("00000000-0000-0000-0004-000000000001")
	RateID            = uuid.MustParse("00000000-0000-0000-0005-000000000001")
)

const BankCode = 134

func mustExec(t *testing.T, db *sql.DB, what, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("seed %s: %v", what, err)
	}
}

func SeedUser(t *testing.T, db *sql.DB, id uuid.UUID, email, role string) {
	t.Helper()
	mustExec(t, db, "user",
		`INSERT INTO users (id, email, name, role) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		id, email, email, role,
	)
}

func SeedMinorista(t *testing.T, db *sql.DB, creditLimit, profitPct decimal.Decimal) uuid.UUID {
	t.Helper()
	SeedUser(t, db, MinoristaUserID, "minorista@test.local", "MINORISTA")
	mustExec(t, db, "minorista",
		`INSERT INTO minoristas (id, user_id, business_name, credit_limit, available_credit, profit_percentage)
		 VALUES ($1, $2, 'Tienda Test', $3, $3, $4)`,
		MinoristaID, MinoristaUserID, creditLimit, profitPct,
	)
	return MinoristaID
}

// SeedBankWithAgent creates a bank, an available transferencista assigned to
// it and a funded account owned by that transferencista.
func SeedBankWithAgent(t *testing.T, db *sql.DB, accountBalance decimal.Decimal) {
	t.Helper()
	SeedUser(t, db, TransferencistaUserID, "agent@test.local", "TRANSFERENCISTA")
	mustExec(t, db, "bank",
		`INSERT INTO banks (id, name, code, currency) VALUES ($1, 'Banco Test', $2, 'VES')`,
		BankID, BankCode,
	)
	mustExec(t, db, "transferencista",
		`INSERT INTO transferencistas (id, user_id, name, available) VALUES ($1, $2, 'Agent', true)`,
		TransferencistaID, TransferencistaUserID,
	)
	mustExec(t, db, "assignment",
		`INSERT INTO bank_assignments (id, bank_id, transferencista_id, priority) VALUES ($1, $2, $3, 0)`,
		uuid.New(), BankID, TransferencistaID,
	)
	mustExec(t, db, "bank account",
		`INSERT INTO bank_accounts (id, bank_id, owner_type, owner_id, account_number, account_holder, account_type, balance)
		 VALUES ($1, $2, 'TRANSFERENCISTA', $3, '01340000000000000001', 'Agent', 'CORRIENTE', $4)`,
		BankAccountID, BankID, TransferencistaID, accountBalance,
	)
}

func SeedRate(t *testing.T, db *sql.DB, buy, sell, usd, bcv string) uuid.UUID {
	t.Helper()
	mustExec(t, db, "rate",
		`INSERT INTO rates (id, buy_rate, sell_rate, usd, bcv, created_by) VALUES ($1, $2, $3, $4, $5, $6)`,
		RateID, buy, sell, usd, bcv, AdminUserID,
	)
	return RateID
}

// SeedAll seeds an admin, a minorista with the given limit, a bank with one
// funded agent account and a published rate.
func SeedAll(t *testing.T, db *sql.DB, creditLimit, accountBalance decimal.Decimal) {
	t.Helper()
	SeedUser(t, db, AdminUserID, "admin@test.local", "ADMIN")
	SeedMinorista(t, db, creditLimit, decimal.RequireFromString("0.05"))
	SeedBankWithAgent(t, db, accountBalance)
	SeedRate(t, db, "40", "38", "36.5", "36.2")
}
