package domain

import (
	"encoding/json"
	"fmt"
)

// Extra holds JSON members a type does not model so they survive a round trip.
type Extra map[string]json.RawMessage

// splitExtra returns the members of a JSON object that are not in known.
func splitExtra(data []byte, known ...string) (Extra, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(members, key)
	}
	if len(members) == 0 {
		return nil, nil
	}
	return Extra(members), nil
}

// mergeExtra adds extra members to an encoded JSON object. Modelled fields win.
func mergeExtra(encoded []byte, extra Extra) ([]byte, error) {
	if len(extra) == 0 {
		return encoded, nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &members); err != nil {
		return nil, fmt.Errorf("reopen encoded object: %w", err)
	}
	for key, value := range extra {
		if _, exists := members[key]; !exists {
			members[key] = value
		}
	}
	return json.Marshal(members)
}
