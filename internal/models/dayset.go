package models

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/julianstephens/habits/internal/utils"
)

// DaySet is the set of local day keys (YYYY-MM-DD) on which a habit was completed.
// It serializes as a sorted array.
type DaySet map[string]struct{}

// NewDaySet builds a set from day keys.
func NewDaySet(keys ...string) DaySet {
	s := make(DaySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s DaySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key and reports whether it was newly added.
func (s DaySet) Add(key string) bool {
	if s.Has(key) {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Remove deletes key and reports whether it was present.
func (s DaySet) Remove(key string) bool {
	if !s.Has(key) {
		return false
	}
	delete(s, key)
	return true
}

// Sorted returns the keys in ascending (chronological) order.
func (s DaySet) Sorted() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (s DaySet) Clone() DaySet {
	out := make(DaySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func (s DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *DaySet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("completed dates: %w", err)
	}
	set, err := daySetFrom(keys)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func (s DaySet) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(s.Sorted())
}

func (s *DaySet) DecodeMsgpack(dec *msgpack.Decoder) error {
	var keys []string
	if err := dec.Decode(&keys); err != nil {
		return fmt.Errorf("completed dates: %w", err)
	}
	set, err := daySetFrom(keys)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func daySetFrom(keys []string) (DaySet, error) {
	set := make(DaySet, len(keys))
	for _, k := range keys {
		if !utils.IsDayKey(k) {
			return nil, fmt.Errorf("invalid day key %q", k)
		}
		set[k] = struct{}{}
	}
	return set, nil
}
