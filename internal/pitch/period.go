// SPDX-License-Identifier: MIT
package pitch

// Periods is a bounded list of rising-edge distances from one window.
type Periods struct {
	vals     [MaxPeriods]int
	n        int
	overflow int
}

// Reset empties the list.
func (p *Periods) Reset() {
	p.n = 0
	p.overflow = 0
}

// Values returns the collected periods. The slice aliases the list.
func (p *Periods) Values() []int { return p.vals[:p.n] }

// Overflow returns how many periods did not fit in the list.
func (p *Periods) Overflow() int { return p.overflow }

func (p *Periods) push(v int) {
	if p.n == MaxPeriods {
		p.overflow++
		return
	}
	p.vals[p.n] = v
	p.n++
}

// PeriodStats summarizes the periods of one window, in samples.
type PeriodStats struct {
	Sum    int
	Count  int
	Spread int // max period - min period
}

// ExtractPeriods scans binary for rising edges and records the distance
// between consecutive edges into p. The first edge only arms the tracker.
func ExtractPeriods(binary []uint8, p *Periods) PeriodStats {
	p.Reset()

	span := Interior(len(binary), tapRadius, edgeTrail)
	prev, armed := 0, false
	for i := span.Lo; i < span.Hi; i++ {
		if binary[i] != 0 || binary[i+1] != 1 {
			continue
		}
		if armed {
			p.push(i - prev)
		}
		prev, armed = i, true
	}

	return summarize(p.Values())
}

func summarize(periods []int) PeriodStats {
	if len(periods) == 0 {
		return PeriodStats{}
	}
	st := PeriodStats{Count: len(periods)}
	lo, hi := periods[0], periods[0]
	for _, d := range periods {
		st.Sum += d
		lo = min(lo, d)
		hi = max(hi, d)
	}
	st.Spread = hi - lo
	return st
}
