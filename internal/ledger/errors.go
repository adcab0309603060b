package ledger

import "errors"

var (
	ErrInvalidAccountCode = errors.New("invalid account code")
	ErrInvalidCategory    = errors.New("invalid account category")
	ErrInvalidSetting     = errors.New("invalid account setting")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUnbalancedEntry    = errors.New("entry debits and credits do not balance")
	ErrUnbalancedBase     = errors.New("entry does not balance in base currency")
	ErrTooFewLines        = errors.New("entry must have at least 2 non-zero lines")
	ErrMissingAccount     = errors.New("entry line has no account")
	ErrInconsistentSides  = errors.New("entry line has both debit and credit")
	ErrInvalidRow         = errors.New("ledger row must have exactly one positive side")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidRate        = errors.New("exchange rate must be positive")
	ErrInvalidCurrency    = errors.New("invalid or unsupported currency code")
	ErrInvalidTransition  = errors.New("invalid entry status transition")
	ErrEntryNotFound      = errors.New("journal entry not found")
	ErrRowNotFound        = errors.New("ledger row not found")
	ErrRowLocked          = errors.New("ledger row is locked")
)
