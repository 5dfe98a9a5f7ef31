package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/commands"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func runBooks(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func initBooks(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runBooks(t, dir, "init")
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const invoiceYAML = `kind: SalesInvoice
party: Acme
account: Debtors
date: 2026-03-14
items:
  - item: Widget
    account: Sales
    quantity: 2
    rate: 500
taxes:
  - account: TaxPayable
    rate: 18
`

const paymentYAML = `kind: Payment
payment_type: Receive
party: Acme
account: Debtors
payment_account: Cash
amount: 1180
date: 2026-03-20
for:
  - reference_type: SalesInvoice
    reference_name: SINV-1001
    amount: 1180
`

func TestInit_CreatesBooks(t *testing.T) {
	dir := t.TempDir()
	out, err := runBooks(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "12 accounts, 4 number series")

	data, err := os.ReadFile(filepath.Join(dir, "books.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "currency: USD")
	assert.Contains(t, string(data), "write_off_account: Write Off")

	_, err = os.Stat(filepath.Join(dir, "books.db"))
	require.NoError(t, err)
}

func TestInit_Idempotent(t *testing.T) {
	dir := initBooks(t)

	out, err := runBooks(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Keeping existing")
	assert.Contains(t, out, "0 accounts, 0 number series")
}

func TestInit_Currency(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, dir, "init", "--currency", "EUR", "--locale", "de-DE")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "books.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "currency: EUR")
	assert.Contains(t, string(data), "locale: de-DE")

	_, err = runBooks(t, t.TempDir(), "init", "--currency", "euro")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaults.currency")
}

func TestAccountList(t *testing.T) {
	dir := initBooks(t)

	out, err := runBooks(t, dir, "account", "list", "--root-type", "Asset")
	require.NoError(t, err)
	assert.Contains(t, out, "Cash")
	assert.Contains(t, out, "Debtors")
	assert.NotContains(t, out, "Sales")

	_, err = runBooks(t, dir, "account", "list", "--root-type", "Stuff")
	require.Error(t, err)
}

func TestAccountImportExport(t *testing.T) {
	dir := initBooks(t)
	csvPath := writeFile(t, dir, "extra.csv",
		"account_name,root_type,balance,description\nConsulting,Income,0.00,Consulting revenue\n")

	out, err := runBooks(t, dir, "account", "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 accounts")

	exportPath := filepath.Join(dir, "chart.csv")
	_, err = runBooks(t, dir, "account", "export", "-o", exportPath)
	require.NoError(t, err)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Consulting,Income,0.00,Consulting revenue")
}

func TestFullCycle(t *testing.T) {
	dir := initBooks(t)
	inv := writeFile(t, dir, "invoice.yaml", invoiceYAML)
	pay := writeFile(t, dir, "payment.yaml", paymentYAML)

	out, err := runBooks(t, dir, "doc", "save", "--submit", inv, pay)
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted SalesInvoice SINV-1001")
	assert.Contains(t, out, "Submitted Payment PAY-1001")

	out, err = runBooks(t, dir, "account", "list", "--root-type", "Asset")
	require.NoError(t, err)
	assert.Contains(t, out, "USD 1,180.00")

	out, err = runBooks(t, dir, "party", "show", "Acme")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme (Customer)")
	assert.Contains(t, out, "Outstanding: USD 0.00")
	assert.Contains(t, out, "SalesInvoice SINV-1001")

	out, err = runBooks(t, dir, "ledger", "list", "--ref-type", "SalesInvoice", "--from", "2026-03-01", "--to", "2026-03-31")
	require.NoError(t, err)
	assert.Contains(t, out, "SalesInvoice SINV-1001")
	assert.Contains(t, out, "USD 180.00")
	assert.NotContains(t, out, "PAY-1001")

	exportPath := filepath.Join(dir, "ledger.csv")
	out, err = runBooks(t, dir, "ledger", "export", "-o", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 5 ledger entries")

	out, err = runBooks(t, dir, "ledger", "verify", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "is consistent")

	out, err = runBooks(t, dir, "doc", "cancel", "SalesInvoice", "SINV-1001")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled SalesInvoice SINV-1001")

	out, err = runBooks(t, dir, "doc", "show", "Payment", "PAY-1001")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled: true")

	out, err = runBooks(t, dir, "account", "list", "--root-type", "Asset")
	require.NoError(t, err)
	assert.NotContains(t, out, "1,180.00")

	out, err = runBooks(t, dir, "ledger", "export", "--all", "-o", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 10 ledger entries")
}

func TestDocSave_Draft(t *testing.T) {
	dir := initBooks(t)
	inv := writeFile(t, dir, "invoice.yaml", invoiceYAML)

	out, err := runBooks(t, dir, "doc", "save", inv)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved SalesInvoice SINV-1001")

	out, err = runBooks(t, dir, "doc", "show", "SalesInvoice", "SINV-1001")
	require.NoError(t, err)
	assert.Contains(t, out, "submitted: false")

	out, err = runBooks(t, dir, "doc", "submit", "SalesInvoice", "SINV-1001")
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted SalesInvoice SINV-1001")

	_, err = runBooks(t, dir, "doc", "submit", "SalesInvoice", "SINV-1001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document is Submitted")
}

func TestDocSave_Errors(t *testing.T) {
	dir := initBooks(t)

	bad := writeFile(t, dir, "bad.yaml", "kind: Quotation\nparty: Acme\n")
	_, err := runBooks(t, dir, "doc", "save", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown document kind "Quotation"`)

	unbalanced := writeFile(t, dir, "je.yaml", `kind: JournalEntry
accounts:
  - account: Cash
    debit: 100
  - account: Sales
    credit: 90
`)
	_, err = runBooks(t, dir, "doc", "save", unbalanced)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is unbalanced")

	_, err = runBooks(t, dir, "doc", "cancel", "Quotation", "Q-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document type")
}

func TestSeries(t *testing.T) {
	dir := initBooks(t)

	out, err := runBooks(t, dir, "series", "next", "SalesInvoice")
	require.NoError(t, err)
	assert.Equal(t, "SINV-1001\n", out)

	out, err = runBooks(t, dir, "series", "next", "SalesInvoice")
	require.NoError(t, err)
	assert.Equal(t, "SINV-1002\n", out)

	_, err = runBooks(t, dir, "series", "set", "SINV-", "--start", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot change start")

	out, err = runBooks(t, dir, "series", "set", "CN-", "--start", "1", "--pad-zeros", "3", "--reference-type", "SalesInvoice")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved series CN-")
}

func TestPartyShow_NotFound(t *testing.T) {
	dir := initBooks(t)
	_, err := runBooks(t, dir, "party", "show", "Nobody")
	require.Error(t, err)
}
