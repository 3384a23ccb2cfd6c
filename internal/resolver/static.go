package resolver

import (
	"context"

	"github.com/username/refuse-schedule/internal/weekday"
)

// Static resolves every address to a fixed collection day
type Static struct {
	Day weekday.Name
}

// LookupCollectionDay implements Resolver
func (s Static) LookupCollectionDay(ctx context.Context, address string) (*Lookup, error) {
	if s.Day == "" {
		return nil, &LookupError{Kind: CollectionDayUnset, Address: address}
	}
	if _, err := weekday.Index(s.Day); err != nil {
		return nil, err
	}
	return &Lookup{Address: address, CollectionDay: s.Day}, nil
}
