package native

import "errors"

// ErrUnavailable is returned when the binary was built without the native
// engine or an entry point is missing.
var ErrUnavailable = errors.New("native ledger engine unavailable")

type entryPoint struct {
	library string
	symbol  string
}

// entryPoints lists one shared library per engine operation.
var entryPoints = []entryPoint{
	{"create-account.so", "createaccount"},
	{"read-account.so", "readaccount"},
	{"read-accounts.so", "readaccounts"},
	{"create-transaction.so", "createtransaction"},
	{"read-credits.so", "readcredits"},
	{"read-debits.so", "readdebits"},
	{"process-transactions.so", "processtransactions"},
}

// Libraries returns the file names Open expects to find in its directory.
func Libraries() []string {
	names := make([]string, 0, len(entryPoints))
	for _, ep := range entryPoints {
		names = append(names, ep.library)
	}
	return names
}
