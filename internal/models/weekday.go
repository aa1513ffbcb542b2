package models

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/julianstephens/habits/internal/constants"
)

// WeekdaySet is a set of weekdays numbered 1 (Sunday) through 7 (Saturday),
// stored as a bitmask. Bit d-1 is set when weekday d is a member.
// It serializes as a sorted array of weekday numbers.
type WeekdaySet uint8

const allWeekdays WeekdaySet = 0x7f

// NewWeekdaySet builds a set from weekday numbers. Out-of-range values are ignored.
func NewWeekdaySet(days ...int) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns s with weekday d added.
func (s WeekdaySet) With(d int) WeekdaySet {
	if d < 1 || d > 7 {
		return s
	}
	return s | 1<<(d-1)
}

// Without returns s with weekday d removed.
func (s WeekdaySet) Without(d int) WeekdaySet {
	if d < 1 || d > 7 {
		return s
	}
	return s &^ (1 << (d - 1))
}

// Has reports whether weekday d is in the set.
func (s WeekdaySet) Has(d int) bool {
	if d < 1 || d > 7 {
		return false
	}
	return s&(1<<(d-1)) != 0
}

func (s WeekdaySet) Empty() bool { return s&allWeekdays == 0 }

// Len returns the number of weekdays in the set.
func (s WeekdaySet) Len() int {
	n := 0
	for d := 1; d <= 7; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days returns the member weekdays in ascending order.
func (s WeekdaySet) Days() []int {
	days := make([]int, 0, 7)
	for d := 1; d <= 7; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Names returns the display names of the member weekdays, Sunday first.
func (s WeekdaySet) Names() []string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, constants.WeekdayNames[d-1])
	}
	return names
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Days())
}

func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var days []int
	if err := json.Unmarshal(data, &days); err != nil {
		return fmt.Errorf("selected days: %w", err)
	}
	set, err := weekdaysFrom(days)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func (s WeekdaySet) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(s.Days())
}

func (s *WeekdaySet) DecodeMsgpack(dec *msgpack.Decoder) error {
	var days []int
	if err := dec.Decode(&days); err != nil {
		return fmt.Errorf("selected days: %w", err)
	}
	set, err := weekdaysFrom(days)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func weekdaysFrom(days []int) (WeekdaySet, error) {
	var s WeekdaySet
	for _, d := range days {
		if d < 1 || d > 7 {
			return 0, fmt.Errorf("weekday %d out of range 1-7", d)
		}
		s = s.With(d)
	}
	return s, nil
}
