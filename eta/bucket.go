package eta

import "github.com/castform/batchqueue/job"

// thresholds for pixel-count classification, in pixels.
const (
	smallThreshold  = 500_000
	mediumThreshold = 2_000_000
)

// ClassifyByPixelCount buckets an item by its pixel count. This is the
// canonical policy from the data model, not a component contract:
// callers processing non-image payloads may classify items by whatever
// metric best predicts processing cost and are not required to use this
// helper.
func ClassifyByPixelCount(pixels uint64) job.SizeBucket {
	switch {
	case pixels < smallThreshold:
		return job.Small
	case pixels < mediumThreshold:
		return job.Medium
	default:
		return job.Large
	}
}

// ClassifyByDimensions buckets an item from optional width/height
// dimensions. A missing dimension yields job.SizeUnknown.
func ClassifyByDimensions(width, height *uint32) job.SizeBucket {
	if width == nil || height == nil {
		return job.SizeUnknown
	}
	return ClassifyByPixelCount(uint64(*width) * uint64(*height))
}
