package resolver

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/username/refuse-schedule/internal/weekday"
)

// Lookup is the resolved collection information for an address
type Lookup struct {
	Address        string       `json:"address"`
	MatchedAddress string       `json:"matched_address"`
	CollectionDay  weekday.Name `json:"collection_day"`
	Zone           string       `json:"zone,omitempty"`
	X              float64      `json:"x"`
	Y              float64      `json:"y"`
}

// apiError is the error object ArcGIS returns with HTTP 200
type apiError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("ArcGIS error %d: %s", e.Code, e.Message)
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type candidate struct {
	Address  string  `json:"address"`
	Location point   `json:"location"`
	Score    float64 `json:"score"`
}

type geocodeResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type feature struct {
	Attributes map[string]json.RawMessage `json:"attributes"`
}

type queryResponse struct {
	Features []feature `json:"features"`
	Error    *apiError `json:"error,omitempty"`
}

// attrString returns a feature attribute as a string; numbers are formatted, null is empty
func (f feature) attrString(name string) string {
	raw, ok := f.Attributes[name]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}

	return ""
}
