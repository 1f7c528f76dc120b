package submission

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Label returns the bijective base-26 chain identifier for n:
// 0→A, 25→Z, 26→AA, 27→AB, 701→ZZ, 702→AAA.  Negative n is treated as 0.
func Label(n int) string {
	if n < 0 {
		n = 0
	}
	var buf [16]byte
	i := len(buf)
	for {
		i--
		buf[i] = alphabet[n%26]
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return string(buf[i:])
}

// LabelCounter is the position of the next chain label to issue.  It is a
// value: advancing returns a new counter and leaves the receiver untouched.
type LabelCounter int

// Next issues one label and returns the advanced counter.
func (c LabelCounter) Next() (string, LabelCounter) {
	return Label(int(c)), c + 1
}

// Take issues k consecutive labels and returns the counter advanced by k.
// k below 1 issues nothing.
func (c LabelCounter) Take(k int) ([]string, LabelCounter) {
	if k < 1 {
		return nil, c
	}
	labels := make([]string, 0, k)
	for i := 0; i < k; i++ {
		var l string
		l, c = c.Next()
		labels = append(labels, l)
	}
	return labels, c
}
