package waveform

// Noise is a xorshift32 generator. It holds no lock, so each goroutine that
// produces noise needs its own instance.
type Noise struct {
	state uint32
}

const defaultNoiseSeed = 0xACE1ACE1

func NewNoise(seed uint32) *Noise {
	n := &Noise{}
	n.Seed(seed)
	return n
}

// Seed resets the generator. A zero seed is replaced because xorshift
// never leaves the all-zero state.
func (n *Noise) Seed(seed uint32) {
	if seed == 0 {
		seed = defaultNoiseSeed
	}
	n.state = seed
}

// Sample returns a uniform value in [-1, 1].
func (n *Noise) Sample() float64 {
	if n.state == 0 {
		n.state = defaultNoiseSeed
	}
	x := n.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	n.state = x
	return float64(x)/float64(^uint32(0))*2 - 1
}
