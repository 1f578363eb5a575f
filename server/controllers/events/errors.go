package events

import "fmt"

type EventParsingError struct {
	Err error
}

func (e *EventParsingError) Error() string {
	return fmt.Sprintf("parsing event: %s", e.Err.Error())
}

func (e *EventParsingError) Unwrap() error {
	return e.Err
}
