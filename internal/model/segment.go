package model

// Segment is an ordinal classification label assigned by score percentile.
type Segment string

// Default segment labels, most strategic first.
const (
	SegmentStrategic     Segment = "Strategic"
	SegmentCritical      Segment = "Critical"
	SegmentOperational   Segment = "Operational"
	SegmentTransactional Segment = "Transactional"
)

// DefaultSegmentOrder lists the default labels from most to least strategic.
var DefaultSegmentOrder = []Segment{
	SegmentStrategic,
	SegmentCritical,
	SegmentOperational,
	SegmentTransactional,
}
