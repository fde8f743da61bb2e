package kv

import "fmt"

// RangeTag names one of the eighteen recognized range shapes (spec.md
// §4.3): each decodes to a (forward, has_start, include_start, has_stop,
// include_stop) tuple that the cursor iterator drives off of.
type RangeTag int

const (
	RangeAll RangeTag = iota
	RangeAllBack
	RangeAtLeast
	RangeAtLeastBack
	RangeAtMost
	RangeAtMostBack
	RangeClosed
	RangeClosedBack
	RangeClosedOpen
	RangeClosedOpenBack
	RangeOpen
	RangeOpenBack
	RangeOpenClosed
	RangeOpenClosedBack
	RangeGreaterThan
	RangeGreaterThanBack
	RangeLessThan
	RangeLessThanBack
)

var rangeNames = map[string]RangeTag{
	"all":              RangeAll,
	"all-back":         RangeAllBack,
	"at-least":         RangeAtLeast,
	"at-least-back":    RangeAtLeastBack,
	"at-most":          RangeAtMost,
	"at-most-back":     RangeAtMostBack,
	"closed":           RangeClosed,
	"closed-back":      RangeClosedBack,
	"closed-open":      RangeClosedOpen,
	"closed-open-back": RangeClosedOpenBack,
	"open":             RangeOpen,
	"open-back":        RangeOpenBack,
	"open-closed":      RangeOpenClosed,
	"open-closed-back": RangeOpenClosedBack,
	"greater-than":     RangeGreaterThan,
	"greater-than-back": RangeGreaterThanBack,
	"less-than":        RangeLessThan,
	"less-than-back":   RangeLessThanBack,
}

// ParseRangeTag resolves a range tag by name (e.g. "closed-open"), for
// callers that carry range shape as configuration rather than a constant.
func ParseRangeTag(name string) (RangeTag, error) {
	tag, ok := rangeNames[name]
	if !ok {
		return 0, fmt.Errorf("kv: unknown range tag %q", name)
	}
	return tag, nil
}

// rangeDescriptor is the decoded 5-tuple a RangeTag names (spec.md §4.3).
type rangeDescriptor struct {
	forward      bool
	hasStart     bool
	includeStart bool
	hasStop      bool
	includeStop  bool
}

var rangeTable = map[RangeTag]rangeDescriptor{
	RangeAll:              {true, false, false, false, false},
	RangeAllBack:          {false, false, false, false, false},
	RangeAtLeast:          {true, true, true, false, false},
	RangeAtLeastBack:      {false, true, true, false, false},
	RangeAtMost:           {true, false, false, true, true},
	RangeAtMostBack:       {false, false, false, true, true},
	RangeClosed:           {true, true, true, true, true},
	RangeClosedBack:       {false, true, true, true, true},
	RangeClosedOpen:       {true, true, true, true, false},
	RangeClosedOpenBack:   {false, true, true, true, false},
	RangeOpen:             {true, true, false, true, false},
	RangeOpenBack:         {false, true, false, true, false},
	RangeOpenClosed:       {true, true, false, true, true},
	RangeOpenClosedBack:   {false, true, false, true, true},
	RangeGreaterThan:      {true, true, false, false, false},
	RangeGreaterThanBack:  {false, true, false, false, false},
	RangeLessThan:         {true, false, false, true, false},
	RangeLessThanBack:     {false, false, false, true, false},
}

func decodeRange(tag RangeTag) (rangeDescriptor, error) {
	d, ok := rangeTable[tag]
	if !ok {
		return rangeDescriptor{}, fmt.Errorf("kv: unknown range tag %d", tag)
	}
	return d, nil
}
