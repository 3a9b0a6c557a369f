//go:build debug

// Gomega should not be dependency in non-debug build.

package cache

import (
	"errors"
	"log"

	"github.com/facebookgo/stackerr"
	. "github.com/onsi/gomega"
)

// invariants is separate Gomega, so cache checks don't interfere with test suites.
var invariants = NewGomega(invariantsFailHandler)

func invariantsFailHandler(message string, callerSkip ...int) {
	skip := 1
	if len(callerSkip) > 0 {
		skip += callerSkip[0]
	}
	log.Fatal("FATAL: invariants are broken:", stackerr.WrapSkip(errors.New(message), skip))
}

func (q *queue[K, V]) checkInvariants() {
	invariants.Expect(q.fakeHead.prev).To(BeNil())
	invariants.Expect(q.fakeTail.next).To(BeNil())
	invariants.Expect(q.fakeHead.owner).To(BeNil())
	invariants.Expect(q.fakeTail.owner).To(BeNil())
	var actualCost float64
	for n := q.bottom(); !q.fake(n); n = n.next {
		actualCost += n.cost
		invariants.Expect(n.prev.next).To(BeIdenticalTo(n))
		invariants.Expect(n.owner).To(BeIdenticalTo(q))
	}
	invariants.Expect(q.top().next).To(BeIdenticalTo(q.fakeTail))
	invariants.Expect(q.cost).To(BeNumerically("~", actualCost, 1e-6))
}

func (c *Cache[K, V]) checkInvariants() {
	c.recency.checkInvariants()
	var items, expiring int
	for n := c.recency.bottom(); !c.recency.fake(n); n = n.next {
		items++
		if n.expiring() {
			expiring++
		}
		tn, ok := c.table[n.key]
		invariants.Expect(ok).To(BeTrue(), "no table ref to item %v", n.key)
		invariants.Expect(tn).To(BeIdenticalTo(n), "table refs to another node")
	}
	invariants.ExpectWithOffset(1, items).To(Equal(len(c.table)), "too many items in table")
	invariants.ExpectWithOffset(1, expiring).To(Equal(c.expiring), "expiring nodes miscounted")
}
