package resolver

import (
	"errors"
	"fmt"
)

// ErrorKind classifies expected lookup failures
type ErrorKind int

const (
	AddressNotFound ErrorKind = iota + 1
	ZoneNotFound
	CollectionDayUnset
)

// String implements fmt.Stringer
func (k ErrorKind) String() string {
	switch k {
	case AddressNotFound:
		return "address_not_found"
	case ZoneNotFound:
		return "zone_not_found"
	case CollectionDayUnset:
		return "collection_day_unset"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

// LookupError is returned when an address cannot be mapped to a collection day.
// Transport and decoding failures are ordinary wrapped errors, not LookupErrors.
type LookupError struct {
	Kind    ErrorKind
	Address string
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case AddressNotFound:
		return fmt.Sprintf("address not found: %s", e.Address)
	case ZoneNotFound:
		return fmt.Sprintf("no collection zone found for address: %s", e.Address)
	case CollectionDayUnset:
		return fmt.Sprintf("collection day not set for address: %s", e.Address)
	default:
		return fmt.Sprintf("lookup failed for address: %s", e.Address)
	}
}

// KindOf returns the lookup failure kind carried by err, if any
func KindOf(err error) (ErrorKind, bool) {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}
