package eta_test

import (
	"testing"

	"github.com/castform/batchqueue/eta"
	"github.com/castform/batchqueue/job"
)

func TestRecordAndEstimate(t *testing.T) {
	e := eta.NewEstimator()
	e.Record("model-a", "tag", job.Medium, 1000)
	e.Record("model-a", "tag", job.Medium, 2000)

	got, ok := e.EstimateOne("model-a", "tag", job.Medium)
	if !ok {
		t.Fatal("expected data")
	}
	if got != 1500 {
		t.Fatalf("expected 1500, got %d", got)
	}
}

func TestNoDataReturnsFalse(t *testing.T) {
	e := eta.NewEstimator()
	if _, ok := e.EstimateOne("model-a", "tag", job.Medium); ok {
		t.Fatal("expected no data")
	}
}

func TestFallbackToUnknownBucket(t *testing.T) {
	e := eta.NewEstimator()
	e.Record("model-a", "tag", job.SizeUnknown, 500)

	got, ok := e.EstimateOne("model-a", "tag", job.Medium)
	if !ok || got != 500 {
		t.Fatalf("expected fallback estimate 500, got %d ok=%v", got, ok)
	}
}

func TestEstimateRemainingMultiple(t *testing.T) {
	e := eta.NewEstimator()
	e.Record("model-a", "tag", job.Small, 500)
	e.Record("model-a", "tag", job.Large, 2000)

	remaining := []job.SizeBucket{job.Small, job.Small, job.Large}
	got, ok := e.EstimateRemaining("model-a", "tag", remaining)
	if !ok || got != 3000 {
		t.Fatalf("expected 3000, got %d ok=%v", got, ok)
	}
}

func TestEstimateRemainingPartialData(t *testing.T) {
	e := eta.NewEstimator()
	e.Record("model-a", "tag", job.Small, 500)

	// Large has no data and no Unknown fallback: contributes nothing, but
	// the overall estimate still succeeds because Small has data.
	remaining := []job.SizeBucket{job.Small, job.Large}
	got, ok := e.EstimateRemaining("model-a", "tag", remaining)
	if !ok || got != 500 {
		t.Fatalf("expected 500, got %d ok=%v", got, ok)
	}
}

func TestEstimateRemainingNoDataAtAll(t *testing.T) {
	e := eta.NewEstimator()
	remaining := []job.SizeBucket{job.Small, job.Large}
	if _, ok := e.EstimateRemaining("model-a", "tag", remaining); ok {
		t.Fatal("expected no data")
	}
}

func TestEstimateRemainingEmptyListIsZero(t *testing.T) {
	e := eta.NewEstimator()
	got, ok := e.EstimateRemaining("model-a", "tag", nil)
	if !ok || got != 0 {
		t.Fatalf("expected (0, true), got (%d, %v)", got, ok)
	}
}

func TestSampleCount(t *testing.T) {
	e := eta.NewEstimator()
	if e.SampleCount("m", "op", job.Small) != 0 {
		t.Fatal("expected 0 samples")
	}
	e.Record("m", "op", job.Small, 100)
	e.Record("m", "op", job.Small, 200)
	if e.SampleCount("m", "op", job.Small) != 2 {
		t.Fatal("expected 2 samples")
	}
}

func TestDifferentOperationsIsolated(t *testing.T) {
	e := eta.NewEstimator()
	e.Record("model", "tag", job.Medium, 1000)
	e.Record("model", "caption", job.Medium, 3000)

	if got, _ := e.EstimateOne("model", "tag", job.Medium); got != 1000 {
		t.Fatalf("expected 1000, got %d", got)
	}
	if got, _ := e.EstimateOne("model", "caption", job.Medium); got != 3000 {
		t.Fatalf("expected 3000, got %d", got)
	}
}

func TestClassifyByPixelCount(t *testing.T) {
	cases := []struct {
		pixels uint64
		want   job.SizeBucket
	}{
		{100, job.Small},
		{499_999, job.Small},
		{500_000, job.Medium},
		{1_999_999, job.Medium},
		{2_000_000, job.Large},
		{10_000_000, job.Large},
	}
	for _, c := range cases {
		if got := eta.ClassifyByPixelCount(c.pixels); got != c.want {
			t.Errorf("ClassifyByPixelCount(%d) = %v, want %v", c.pixels, got, c.want)
		}
	}
}

func TestClassifyByDimensionsMissing(t *testing.T) {
	if got := eta.ClassifyByDimensions(nil, nil); got != job.SizeUnknown {
		t.Fatalf("expected SizeUnknown, got %v", got)
	}
	w := uint32(1000)
	if got := eta.ClassifyByDimensions(&w, nil); got != job.SizeUnknown {
		t.Fatalf("expected SizeUnknown, got %v", got)
	}
}

func TestClassifyByDimensionsPresent(t *testing.T) {
	w, h := uint32(800), uint32(600)
	if got := eta.ClassifyByDimensions(&w, &h); got != job.Small {
		t.Fatalf("expected Small, got %v", got)
	}
}
