package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Storage errors
	ErrDatabaseNotFound  = fmt.Errorf("database not found")
	ErrMissingCollection = fmt.Errorf("no collection found in package")

	// Generation errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrInvalidResponse = fmt.Errorf("invalid response")
	ErrTimeout         = fmt.Errorf("operation timed out")

	// Lookup errors
	ErrWordNotFound = fmt.Errorf("word not found")
	ErrNoteNotFound = fmt.Errorf("note not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
