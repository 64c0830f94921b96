package convert

import "errors"

var (
	// ErrUnsupportedNode is returned when a node of a type that cannot
	// contribute text is found where content is assembled.
	ErrUnsupportedNode = errors.New("unsupported node")

	// ErrUnknownFilter is returned when a rule carries a filter of a type the
	// matcher does not know. It indicates a broken rule table.
	ErrUnknownFilter = errors.New("unknown rule filter")

	// ErrInvalidUTF8 is returned when the input is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

	// ErrAliasCycle is returned when a language alias maps onto a name that
	// is itself remapped.
	ErrAliasCycle = errors.New("language alias maps onto another alias")
)
