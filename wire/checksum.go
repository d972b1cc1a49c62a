package wire

// Checksum100 is the datalink-layer checksum as per spec: the sum of the
// ASCII byte values of a payload, reduced mod 100. Its zero value is ready
// to use, the way lneto.CRC791's zero value is ready to use.
type Checksum100 struct {
	sum int
}

// Write adds the bytes of p to the running checksum.
func (c *Checksum100) Write(p []byte) {
	for _, b := range p {
		c.sum += int(b)
	}
}

// Sum returns the checksum accumulated so far, in [0..99].
func (c *Checksum100) Sum() int { return c.sum % 100 }

// Checksum computes the mod-100 ASCII checksum of payload in one call.
func Checksum(payload []byte) int {
	var c Checksum100
	c.Write(payload)
	return c.Sum()
}
