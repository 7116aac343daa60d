package payments

import (
	"log"
	"strconv"

	"github.com/snegopad/snowpay/internal/pkg/database"
	"github.com/snegopad/snowpay/internal/pkg/env"
)

var (
	defaultCredentials *Credentials
	defaultDispatcher  *Dispatcher
	defaultVerifier    *OrderVerifier
	defaultRecorder    *EventRecorder
)

// Setup builds the process-wide payments wiring from the environment:
// credentials, catalog, the configured ledger backend, the dispatcher,
// the event recorder and the client order verifier. Call once at boot,
// after the database (when LEDGER_BACKEND=mysql) is up.
func Setup() {
	defaultCredentials = NewCredentialsFromEnv()
	catalog := DefaultCatalog()

	startSequence, err := strconv.ParseInt(env.GetEnv("LEDGER_SEQUENCE_START", "1000"), 10, 64)
	if err != nil {
		log.Printf("payments: invalid LEDGER_SEQUENCE_START, using 1000: %v", err)
		startSequence = 1000
	}

	var ledger Ledger
	switch backend := env.GetEnv("LEDGER_BACKEND", "file"); backend {
	case "mysql":
		db := database.GetDB()
		if db == nil {
			panic("payments: LEDGER_BACKEND=mysql but database is not initialized")
		}
		gl, err := NewGormLedger(db, startSequence)
		if err != nil {
			panic("payments: ledger sequence seed failed: " + err.Error())
		}
		ledger = gl
		defaultRecorder = NewEventRecorder(db)
	default:
		path := env.GetEnv("LEDGER_FILE", "data/ledger.json")
		fl, err := OpenFileLedger(path, startSequence)
		if err != nil {
			panic("payments: ledger file open failed: " + err.Error())
		}
		ledger = fl
		defaultRecorder = NewEventRecorder(nil)
	}

	defaultDispatcher = NewDispatcher(catalog, ledger)
	defaultVerifier = NewOrderVerifier(
		catalog,
		NewVKClientFromEnv(),
		defaultCredentials,
		env.GetEnv("VERIFY_SIGN", "true") == "true",
	)
}

// GetDispatcher returns the process-wide dispatcher.
func GetDispatcher() *Dispatcher {
	if defaultDispatcher == nil {
		Setup()
	}
	return defaultDispatcher
}

// GetVerifier returns the process-wide client order verifier.
func GetVerifier() *OrderVerifier {
	if defaultVerifier == nil {
		Setup()
	}
	return defaultVerifier
}

// GetCredentials returns the loaded secret material.
func GetCredentials() *Credentials {
	if defaultCredentials == nil {
		Setup()
	}
	return defaultCredentials
}

// GetEventRecorder returns the audit recorder (nil-safe to use).
func GetEventRecorder() *EventRecorder {
	return defaultRecorder
}
