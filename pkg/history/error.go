package history

import "errors"

// ErrInvalidExchange is returned by Put for exchanges that cannot be stored.
var ErrInvalidExchange = errors.New("invalid exchange")

// NotFoundError is returned when an exchange doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "exchange not found"
	}

	return "exchange not found: " + e.ID
}

// Validate checks the fields every driver requires.
func Validate(e *Exchange) error {
	switch {
	case e == nil:
		return errors.Join(ErrInvalidExchange, errors.New("cannot store nil exchange"))
	case e.ID == "":
		return errors.Join(ErrInvalidExchange, errors.New("exchange id is required"))
	case e.DocumentID == "":
		return errors.Join(ErrInvalidExchange, errors.New("exchange document id is required"))
	}
	return nil
}
