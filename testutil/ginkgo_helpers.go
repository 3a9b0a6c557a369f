package testutil

import (
	"bytes"
	"os"

	. "github.com/onsi/gomega"
)

const maxPrintableLen = 1024

// ExpectBytesEqual have much less overhead for large byte chunks but gomega.Equal.
func ExpectBytesEqual(a, b []byte) {
	ExpectBytesEqualWithOffset(1, a, b)
}

func ExpectBytesEqualWithOffset(off int, a, b []byte) {
	off++
	if !bytes.Equal(a, b) {
		if len(a)+len(b) <= 2*maxPrintableLen {
			ExpectWithOffset(off, a).To(Equal(b))
		}
		ExpectWithOffset(off, len(a)).To(Equal(len(b)), "Length are unequal and data is too large to print.")
		for i, ab := range a {
			if ab != b[i] {
				cmpEnd := i + maxPrintableLen
				if cmpEnd > len(a) {
					cmpEnd = len(a)
				}
				ExpectWithOffset(off, a[i:cmpEnd]).To(Equal(b[i:cmpEnd]), "Skiped %v equal bytes.", i)
			}
		}
	}
}

// TmpFileName returns name of not existing file in temp dir.
func TmpFileName() string {
	f, err := os.CreateTemp("", "go_test_tmp_")
	Expect(err).To(BeNil())
	filename := f.Name()
	err = f.Close()
	Expect(err).To(BeNil())
	err = os.Remove(filename)
	Expect(err).To(BeNil())
	return filename
}
