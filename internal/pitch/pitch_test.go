// SPDX-License-Identifier: MIT
package pitch

import (
	"math"
	"testing"

	"tuner/internal/capture"
	"tuner/pkg/utils"
)

const effectiveRate = DefaultNominalSampleRate - DefaultCalibrationOffset

func TestNormalizeRange(t *testing.T) {
	tests := []struct {
		name      string
		lo, hi    capture.Sample
		threshold int
		want      Verdict
	}{
		{"Small range", 8000, 8100, DefaultIntensityThreshold, Accepted},
		{"Range equals threshold", 8000, 8000 + 2048, 2048, Accepted},
		{"Range above threshold", 8000, 8000 + 2049, 2048, RejectTransient},
		{"Low threshold", 8000, 9100, 1024, RejectTransient},
		{"Odd range", 100, 1123, 2048, Accepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := utils.TriangleWindow(capture.SmpPoints, tt.lo, tt.hi, 64)
			out := make([]float64, len(in))

			mean, v := Normalize(in, out, tt.threshold)
			if v != tt.want {
				t.Fatalf("verdict: got %s, want %s", v, tt.want)
			}
			if v != Accepted {
				return
			}

			var sum float64
			for i, x := range out {
				if x < 0 || x > NormalizedMax {
					t.Fatalf("out[%d] = %f outside [0, %#x]", i, x, NormalizedMax)
				}
				sum += x
			}
			if got := sum / float64(len(out)); math.Abs(got-mean) > 1e-9 {
				t.Errorf("mean: got %f, want %f", mean, got)
			}
			if out[0] != 0 && tt.lo == in[0] {
				t.Errorf("window minimum should map to 0, got %f", out[0])
			}
		})
	}
}

func TestNormalizeFlatRejected(t *testing.T) {
	in := make([]capture.Sample, capture.SmpPoints)
	for i := range in {
		in[i] = 5000
	}
	out := make([]float64, len(in))
	out[0] = -1

	if _, v := Normalize(in, out, DefaultIntensityThreshold); v != RejectFlat {
		t.Fatalf("flat window: got %s, want flat", v)
	}
	if out[0] != -1 {
		t.Error("rejected window must not write output")
	}
	if _, v := Normalize(nil, out, DefaultIntensityThreshold); v != RejectFlat {
		t.Errorf("empty window: got %s, want flat", v)
	}
}

func TestBinarizeAllEqualIsHigh(t *testing.T) {
	norm := make([]float64, capture.SmpPoints)
	for i := range norm {
		norm[i] = 4096
	}
	out := make([]uint8, len(norm))

	Binarize(norm, 4096, out)

	span := Interior(len(norm), tapRadius, tapRadius)
	for i := span.Lo; i < span.Hi; i++ {
		if out[i] != 1 {
			t.Fatalf("out[%d] = %d, average equal to mean must classify as 1", i, out[i])
		}
	}
	for _, i := range []int{0, 1, 2, len(out) - 3, len(out) - 2, len(out) - 1} {
		if out[i] != 0 {
			t.Errorf("edge position %d should stay 0, got %d", i, out[i])
		}
	}
}

func TestBinarizeSquareWave(t *testing.T) {
	norm := make([]float64, 200)
	for i := range norm {
		if (i/20)%2 == 0 {
			norm[i] = NormalizedMax
		}
	}
	out := make([]uint8, len(norm))

	Binarize(norm, NormalizedMax/2, out)

	// Away from transitions the average equals the level itself.
	for _, i := range []int{10, 50, 90} {
		if out[i] != 1 {
			t.Errorf("out[%d] = %d, want 1", i, out[i])
		}
	}
	for _, i := range []int{30, 70, 110} {
		if out[i] != 0 {
			t.Errorf("out[%d] = %d, want 0", i, out[i])
		}
	}
}

func bits(s string) []uint8 {
	b := make([]uint8, len(s))
	for i, c := range s {
		if c == '1' {
			b[i] = 1
		}
	}
	return b
}

func TestInflate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		target uint8
		want   string
	}{
		{"Grow ones", "0000000111000000000", 1, "0000001111100000000"},
		{"Grow zeros", "1111111000111111111", 0, "1111110000011111111"},
		{"Fill single dip", "0001111101111100000", 1, "0001111111111110000"},
		{"Remove single spike", "0000000010000000000", 0, "0000000000000000000"},
		{"Uniform target", "1111111111111111111", 1, "1111111111111111111"},
		{"Uniform other", "0000000000000000000", 1, "0000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bits(tt.in)
			scratch := make([]uint8, len(b))
			Inflate(b, scratch, tt.target)
			if got := string(render(b)); got != tt.want {
				t.Errorf("Inflate(%s, %d)\n got %s\nwant %s", tt.in, tt.target, got, tt.want)
			}
		})
	}
}

func render(b []uint8) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = '0' + v
	}
	return out
}

func TestInflateRepeatedOnStableSignal(t *testing.T) {
	// With no run of the other symbol left inside the band, a second pass has
	// nothing to grow.
	for _, s := range []string{
		"0001111111111111000",
		"1110000000000000111",
	} {
		b := bits(s)
		scratch := make([]uint8, len(b))
		Inflate(b, scratch, b[5])
		once := string(render(b))
		Inflate(b, scratch, b[5])
		if twice := string(render(b)); twice != once {
			t.Errorf("%s: second pass changed signal\nonce  %s\ntwice %s", s, once, twice)
		}
		if once != s {
			t.Errorf("%s: first pass changed signal to %s", s, once)
		}
	}
}

func TestPolicyPasses(t *testing.T) {
	p := DefaultPolicy()
	if got := p.Passes(); got != 8 {
		t.Errorf("default policy passes: got %d, want 8", got)
	}
	want := []Pass{{1, 2}, {0, 4}, {1, 2}}
	for i, step := range p {
		if step != want[i] {
			t.Errorf("step %d: got %+v, want %+v", i, step, want[i])
		}
	}
}

func TestPolicyRemovesNoise(t *testing.T) {
	// Long square wave with a 2-sample dip and a 1-sample spike.
	b := make([]uint8, 400)
	for i := range b {
		if (i/100)%2 == 0 {
			b[i] = 1
		}
	}
	b[50], b[51] = 0, 0
	b[150] = 1
	scratch := make([]uint8, len(b))

	DefaultPolicy().Apply(b, scratch)

	if b[50] != 1 || b[51] != 1 {
		t.Error("short 0-dip should be filled")
	}
	if b[150] != 0 {
		t.Error("short 1-spike should be removed")
	}
}

func edgeSignal(n int, edges ...int) []uint8 {
	b := make([]uint8, n)
	high := false
	next := 0
	for i := range b {
		if next < len(edges) && i == edges[next]+1 {
			high = true
			next++
		}
		if high && next < len(edges) && i == edges[next] {
			high = false
		}
		if high {
			b[i] = 1
		}
	}
	return b
}

func TestExtractPeriodsKnownEdges(t *testing.T) {
	b := edgeSignal(200, 10, 30, 55, 81)
	var p Periods

	st := ExtractPeriods(b, &p)

	want := []int{20, 25, 26}
	got := p.Values()
	if len(got) != len(want) {
		t.Fatalf("periods: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("period %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if st != (PeriodStats{Sum: 71, Count: 3, Spread: 6}) {
		t.Errorf("stats: got %+v, want {71 3 6}", st)
	}
}

func TestExtractPeriodsEdgeBands(t *testing.T) {
	// Rising edges inside the excluded bands are ignored.
	b := make([]uint8, 100)
	b[2] = 1            // edge at 1, before the band
	b[40], b[41] = 1, 1 // edge at 39
	b[60] = 1           // edge at 59
	b[96] = 1           // edge at 95, inside the tail band
	var p Periods

	st := ExtractPeriods(b, &p)
	if st.Count != 1 || st.Sum != 20 {
		t.Errorf("stats: got %+v, want one period of 20", st)
	}
}

func TestExtractPeriodsEmpty(t *testing.T) {
	var p Periods
	if st := ExtractPeriods(make([]uint8, 200), &p); st != (PeriodStats{}) {
		t.Errorf("no edges: got %+v", st)
	}
	// A single edge arms the tracker but yields no period.
	if st := ExtractPeriods(edgeSignal(200, 50), &p); st.Count != 0 {
		t.Errorf("single edge: got %+v", st)
	}
}

func TestExtractPeriodsOverflow(t *testing.T) {
	edges := make([]int, 0, 60)
	for i := 0; i < 60; i++ {
		edges = append(edges, 10+i*10)
	}
	var p Periods

	st := ExtractPeriods(edgeSignal(700, edges...), &p)
	if st.Count != MaxPeriods {
		t.Errorf("count: got %d, want %d", st.Count, MaxPeriods)
	}
	if p.Overflow() != 59-MaxPeriods {
		t.Errorf("overflow: got %d, want %d", p.Overflow(), 59-MaxPeriods)
	}
}

func TestAccumulatorFrequency(t *testing.T) {
	p := DefaultParams()
	p.StabilityWindows = 1
	a := NewAccumulator(p)

	v, done := a.Add(PeriodStats{Sum: 188 * 4, Count: 4, Spread: 0})
	if v != Accepted || !done {
		t.Fatalf("Add: got %s done=%v", v, done)
	}
	r, ok := a.Estimate()
	if !ok {
		t.Fatal("expected an estimate")
	}
	want := (83333.0 - 356.0) / 188.0
	if math.Abs(r.Frequency-want) > 1e-9 {
		t.Errorf("frequency: got %f, want %f", r.Frequency, want)
	}
	if math.Abs(r.Frequency-441.37) > 0.01 {
		t.Errorf("frequency: got %f, want ~441.37", r.Frequency)
	}
}

func TestAccumulatorReset(t *testing.T) {
	a := NewAccumulator(DefaultParams())
	st := PeriodStats{Sum: 1880, Count: 10, Spread: 3}

	for i := 1; i < DefaultStabilityWindows; i++ {
		if _, done := a.Add(st); done {
			t.Fatalf("done early at window %d", i)
		}
	}
	if _, done := a.Add(st); !done {
		t.Fatal("expected done at window 20")
	}
	if _, ok := a.Estimate(); !ok {
		t.Fatal("expected an estimate")
	}
	if a.Sum != 0 || a.Count != 0 || a.Windows != 0 {
		t.Errorf("accumulator not reset: %+v", a)
	}

	// The 21st window starts a fresh cycle.
	a.Add(st)
	if a.Windows != 1 || a.Sum != 1880 || a.Count != 10 {
		t.Errorf("fresh cycle: got sum=%d count=%d windows=%d", a.Sum, a.Count, a.Windows)
	}
}

func TestAccumulatorRejects(t *testing.T) {
	a := NewAccumulator(DefaultParams())

	if v, _ := a.Add(PeriodStats{}); v != RejectNoPeriods {
		t.Errorf("zero count: got %s", v)
	}
	if v, _ := a.Add(PeriodStats{Sum: 500, Count: 3, Spread: 101}); v != RejectUnstable {
		t.Errorf("wide spread: got %s", v)
	}
	if v, _ := a.Add(PeriodStats{Sum: 500, Count: 3, Spread: 100}); v != Accepted {
		t.Errorf("spread at threshold: got %s", v)
	}
	if a.Count != 3 || a.Windows != 1 {
		t.Errorf("rejected windows leaked: %+v", a)
	}
}

func TestAccumulatorZeroCountGuard(t *testing.T) {
	a := NewAccumulator(DefaultParams())
	a.Windows = DefaultStabilityWindows

	r, ok := a.Estimate()
	if ok {
		t.Errorf("estimate from empty accumulator: %+v", r)
	}
	if math.IsNaN(r.Frequency) || math.IsInf(r.Frequency, 0) {
		t.Error("empty estimate must not divide by zero")
	}
	if a.Windows != 0 {
		t.Error("Estimate must reset even without a result")
	}
}

func TestInterior(t *testing.T) {
	tests := []struct {
		n, lead, trail int
		want           Span
	}{
		{2048, 3, 3, Span{3, 2045}},
		{2048, 3, 5, Span{3, 2043}},
		{5, 3, 3, Span{3, 3}},
		{0, 3, 5, Span{3, 3}},
	}
	for _, tt := range tests {
		if got := Interior(tt.n, tt.lead, tt.trail); got != tt.want {
			t.Errorf("Interior(%d,%d,%d) = %+v, want %+v", tt.n, tt.lead, tt.trail, got, tt.want)
		}
	}
}

func TestDetectorSine(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"A4", 440},
		{"E2", 82.41},
		{"E4", 329.63},
		{"A5", 880},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(DefaultParams())
			var last Step
			for w := 0; w < DefaultStabilityWindows; w++ {
				win := utils.SineWindow(capture.SmpPoints, effectiveRate, tt.freq, 800, w*capture.SmpPoints)
				last = d.Process(win)
				if last.Verdict != Accepted {
					t.Fatalf("window %d: %s (stats %+v)", w, last.Verdict, last.Stats)
				}
			}
			if !last.Done || !last.Ok {
				t.Fatalf("no estimate after %d windows: %+v", DefaultStabilityWindows, last)
			}
			if cents := 1200 * math.Log2(last.Result.Frequency/tt.freq); math.Abs(cents) > 5 {
				t.Errorf("frequency: got %.2f Hz, want %.2f (%.1f cents off)", last.Result.Frequency, tt.freq, cents)
			}
		})
	}
}

func TestDetectorRejectsTransient(t *testing.T) {
	d := NewDetector(DefaultParams())
	win := utils.SineWindow(capture.SmpPoints, effectiveRate, 440, 3000, 0)

	step := d.Process(win)
	if step.Verdict != RejectTransient {
		t.Fatalf("loud window: got %s, want transient", step.Verdict)
	}
	if acc := d.Accumulator(); acc.Windows != 0 || acc.Count != 0 {
		t.Errorf("transient window touched accumulator: %+v", acc)
	}
}

func TestDetectorProcessZeroAllocs(t *testing.T) {
	d := NewDetector(DefaultParams())
	win := utils.SineWindow(capture.SmpPoints, effectiveRate, 440, 800, 0)

	d.Process(win)
	allocs := testing.AllocsPerRun(50, func() {
		d.Process(win)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in Process hot path, got %.1f", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	d := NewDetector(DefaultParams())
	win := utils.SineWindow(capture.SmpPoints, effectiveRate, 440, 800, 0)

	b.ReportAllocs()
	for b.Loop() {
		d.Process(win)
	}
}
