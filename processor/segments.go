package processor

import "salesflow/models"

type segmentRule struct {
	label models.Segment
	match func(r, f, m int) bool
}

// segmentRules is evaluated top to bottom; the first match wins.
var segmentRules = []segmentRule{
	{models.SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{models.SegmentLoyal, func(r, f, m int) bool { return r >= 3 && f >= 4 }},
	{models.SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f >= 3 }},
	{models.SegmentBigSpenders, func(r, f, m int) bool { return m == 5 }},
	{models.SegmentNew, func(r, f, m int) bool { return r >= 4 && f <= 1 }},
	{models.SegmentPromising, func(r, f, m int) bool { return r >= 3 && f <= 2 }},
	{models.SegmentLost, func(r, f, m int) bool { return r <= 2 && f <= 2 }},
}

// ClassifySegment maps recency, frequency and monetary scores to a segment.
func ClassifySegment(r, f, m int) models.Segment {
	for _, rule := range segmentRules {
		if rule.match(r, f, m) {
			return rule.label
		}
	}
	return models.SegmentNeedAttention
}

// ClassifyCustomerType buckets a customer by order count.
func ClassifyCustomerType(orders int) models.CustomerType {
	switch {
	case orders <= 1:
		return models.CustomerOneTime
	case orders <= 3:
		return models.CustomerOccasional
	case orders <= 10:
		return models.CustomerRegular
	default:
		return models.CustomerVIP
	}
}

// ClassifyCustomerStatus buckets a customer by days since the last order.
func ClassifyCustomerStatus(daysSinceLast int) models.CustomerStatus {
	switch {
	case daysSinceLast <= 90:
		return models.StatusActive
	case daysSinceLast <= 180:
		return models.StatusAtRisk
	case daysSinceLast <= 365:
		return models.StatusDormant
	default:
		return models.StatusChurned
	}
}

// Segments lists every segment label, for accepted-value checks.
var Segments = []models.Segment{
	models.SegmentChampions, models.SegmentLoyal, models.SegmentAtRisk, models.SegmentBigSpenders,
	models.SegmentNew, models.SegmentPromising, models.SegmentLost, models.SegmentNeedAttention,
}
