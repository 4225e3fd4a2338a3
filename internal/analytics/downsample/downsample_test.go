package downsample

import (
	"fmt"
	"math"
	"testing"

	"github.com/aquasense/aquasense/internal/analytics"
)

const baseMs = int64(1704067200000)

func series(values ...float64) analytics.Series {
	s := make(analytics.Series, len(values))
	for i, v := range values {
		s[i] = analytics.Sample{
			ID:              fmt.Sprintf("s%04d", i),
			TimestampMs:     baseMs + int64(i)*60_000,
			Value:           analytics.Float(v),
			TimestampParsed: true,
		}
	}
	return s
}

func generate(n int, f func(i int) float64) analytics.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = f(i)
	}
	return series(values...)
}

func assertChronological(t *testing.T, s analytics.Series) {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i].TimestampMs <= s[i-1].TimestampMs {
			t.Fatalf("sample %d at %d is not after %d", i, s[i].TimestampMs, s[i-1].TimestampMs)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeNone, false},
		{"none", ModeNone, false},
		{"LTTB", ModeLTTB, false},
		{" m4 ", ModeM4, false},
		{"avg", ModeAverage, false},
		{"median", ModeNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestApply_NoneAndSmallSeries(t *testing.T) {
	s := series(1, 2, 3)
	s[1].Value = nil

	if got := Apply(s, ModeNone, 1); len(got) != 3 {
		t.Errorf("ModeNone returned %d samples, want 3", len(got))
	}
	// a series that fits keeps its nulls
	if got := Apply(s, ModeLTTB, 10); len(got) != 3 || got[1].Value != nil {
		t.Errorf("fitting series changed: %+v", got)
	}
}

func TestApply_DropsNulls(t *testing.T) {
	s := generate(20, func(i int) float64 { return float64(i) })
	for i := 0; i < 15; i++ {
		s[i].Value = nil
	}

	got := Apply(s, ModeLTTB, 10)
	if len(got) != 5 {
		t.Fatalf("expected the 5 finite samples, got %d", len(got))
	}
	for _, p := range got {
		if !p.HasValue() {
			t.Errorf("null sample %s survived", p.ID)
		}
	}
}

func TestApply_LTTB(t *testing.T) {
	s := generate(1000, func(i int) float64 { return math.Sin(float64(i) / 50) })

	got := Apply(s, ModeLTTB, 100)

	if len(got) != 100 {
		t.Fatalf("expected 100 samples, got %d", len(got))
	}
	if got[0].ID != s[0].ID || got[99].ID != s[999].ID {
		t.Errorf("first/last not kept: %s..%s", got[0].ID, got[99].ID)
	}
	assertChronological(t, got)
}

func TestApply_LTTBTwoPoints(t *testing.T) {
	s := generate(50, func(i int) float64 { return float64(i % 7) })

	got := Apply(s, ModeLTTB, 1)

	if len(got) != 2 || got[0].ID != s[0].ID || got[1].ID != s[49].ID {
		t.Errorf("expected first and last, got %+v", got)
	}
}

func TestApply_MinMaxKeepsSpike(t *testing.T) {
	s := generate(1000, func(i int) float64 {
		if i == 500 {
			return 100
		}
		return 5
	})

	got := Apply(s, ModeMinMax, 50)

	if len(got) > 50 {
		t.Errorf("expected at most 50 samples, got %d", len(got))
	}
	found := false
	for _, p := range got {
		if *p.Value == 100 {
			found = true
		}
	}
	if !found {
		t.Error("spike was dropped")
	}
	assertChronological(t, got)
}

func TestApply_M4(t *testing.T) {
	s := generate(1000, func(i int) float64 { return float64(i%13) - float64(i%5) })

	got := Apply(s, ModeM4, 100)

	if len(got) > 100 {
		t.Errorf("expected at most 100 samples, got %d", len(got))
	}
	if got[0].ID != s[0].ID || got[len(got)-1].ID != s[999].ID {
		t.Errorf("first/last not kept: %s..%s", got[0].ID, got[len(got)-1].ID)
	}
	assertChronological(t, got)
}

func TestApply_Average(t *testing.T) {
	s := generate(100, func(i int) float64 { return float64(i) })

	got := Apply(s, ModeAverage, 10)

	if len(got) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(got))
	}
	for i, p := range got {
		want := float64(i*10) + 4.5
		if math.Abs(*p.Value-want) > 1e-9 {
			t.Errorf("bucket %d = %v, want %v", i, *p.Value, want)
		}
		if p.ID != s[i*10+5].ID {
			t.Errorf("bucket %d stamped with %s, want %s", i, p.ID, s[i*10+5].ID)
		}
	}
}

func TestPick(t *testing.T) {
	smooth := generate(200, func(i int) float64 { return float64(i) })
	if m := pick(smooth); m != ModeLTTB {
		t.Errorf("smooth ramp picked %q, want lttb", m)
	}

	spiky := generate(200, func(i int) float64 { return float64(i%2) * 10 })
	if m := pick(spiky); m != ModeMinMax {
		t.Errorf("alternating series picked %q, want minmax", m)
	}

	if got := Apply(spiky, ModeAuto, 20); len(got) > 20 {
		t.Errorf("auto returned %d samples, want at most 20", len(got))
	}
}

func TestSpikiness_ShortOrFlat(t *testing.T) {
	if got := spikiness(series(1, 50, 1)); got != 0 {
		t.Errorf("short series spikiness = %v, want 0", got)
	}
	if got := spikiness(generate(50, func(int) float64 { return 3 })); got != 0 {
		t.Errorf("flat series spikiness = %v, want 0", got)
	}
}
