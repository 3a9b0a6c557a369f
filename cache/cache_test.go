package cache

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/broadly/caching-map/log"
)

var _ = DescribeTable("limit normalization",
	func(in, expected float64) {
		Expect(normalizeLimit(in)).To(Equal(expected))
	},
	Entry("positive", 5.0, 5.0),
	Entry("fractional", 2.5, 2.5),
	Entry("zero", 0.0, 0.0),
	Entry("negative", -3.0, 0.0),
	Entry("negative infinity", math.Inf(-1), Unbounded),
	Entry("infinity", math.Inf(1), Unbounded),
	Entry("NaN", math.NaN(), Unbounded),
)

var _ = DescribeTable("cost normalization",
	func(in, expected float64) {
		Expect(normalizeCost(in)).To(Equal(expected))
	},
	Entry("positive", 3.0, 3.0),
	Entry("zero", 0.0, 0.0),
	Entry("negative", -1.0, 0.0),
	Entry("infinity", math.Inf(1), 1.0),
	Entry("negative infinity", math.Inf(-1), 1.0),
	Entry("NaN", math.NaN(), 1.0),
)

var _ = Describe("expiresAt", func() {
	It("adds ttl", func() {
		Expect(expiresAt(10, 5)).To(BeEquivalentTo(15))
	})
	It("saturates", func() {
		Expect(expiresAt(10, time.Duration(math.MaxInt64))).To(Equal(noExpiry))
	})
	It("never expires without ttl", func() {
		o := newSetOptions(nil)
		Expect(o.expiresAt(100)).To(Equal(noExpiry))
		Expect(o.cost).To(BeEquivalentTo(1))
	})
})

var _ = Describe("Cache", func() {
	var (
		clk *clock.Mock
		c   *Cache[string, int]
	)
	NewCache := func(limit float64) *Cache[string, int] {
		return New[string, int](limit,
			WithClock(clk),
			WithLogger(log.NewLogger(log.DebugLevel, GinkgoWriter)),
		)
	}
	BeforeEach(func() {
		clk = clock.NewMock()
		c = NewCache(5)
	})
	AfterEach(func() {
		c.ExpectInvariantsOk()
	})

	It("init", func() {
		Expect(c.Len()).To(BeZero())
		Expect(c.Cost()).To(BeZero())
		Expect(c.Limit()).To(BeEquivalentTo(5))
	})

	Context("set and get", func() {
		It("one", func() {
			Expect(c.Set("a", 1)).To(BeTrue())
			v, ok := c.Get("a")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(1))
			Expect(c.Len()).To(Equal(1))
			Expect(c.Cost()).To(BeEquivalentTo(1))
		})

		It("miss", func() {
			v, ok := c.Get("a")
			Expect(ok).To(BeFalse())
			Expect(v).To(BeZero())
		})

		It("override replaces value, cost, ttl and position", func() {
			c.Set("a", 1, WithCost(3), WithTTL(time.Second))
			c.Set("b", 2)
			c.Set("a", 10, WithCost(2))
			Expect(c.Len()).To(Equal(2))
			Expect(c.Cost()).To(BeEquivalentTo(3))
			Expect(c.recencyKeys()).To(Equal([]string{"a", "b"}))
			clk.Add(2 * time.Second)
			v, ok := c.Get("a")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(10))
		})

		It("get promotes", func() {
			c.Set("a", 1)
			c.Set("b", 2)
			c.Set("c", 3)
			c.Get("a")
			Expect(c.recencyKeys()).To(Equal([]string{"a", "c", "b"}))
		})

		It("has doesn't promote", func() {
			c.Set("a", 1)
			c.Set("b", 2)
			Expect(c.Has("a")).To(BeTrue())
			Expect(c.Has("x")).To(BeFalse())
			Expect(c.recencyKeys()).To(Equal([]string{"b", "a"}))
		})

		It("invalid cost is default", func() {
			c.Set("a", 1, WithCost(math.NaN()))
			Expect(c.Cost()).To(BeEquivalentTo(1))
		})

		It("zero cost is free", func() {
			for i := 0; i < 10; i++ {
				c.Set(testKey(), i, WithCost(0))
			}
			Expect(c.Len()).To(Equal(10))
			Expect(c.Cost()).To(BeZero())
		})
	})

	Context("boundary", func() {
		It("too costly is not stored", func() {
			c.Set("a", 1)
			Expect(c.Set("b", 2, WithCost(6))).To(BeFalse())
			Expect(c.Has("b")).To(BeFalse())
			Expect(c.Has("a")).To(BeTrue(), "nothing should be evicted for unfit item")
		})

		It("cost equal to limit fits", func() {
			c.Set("a", 1)
			Expect(c.Set("b", 2, WithCost(5))).To(BeTrue())
			Expect(c.Has("a")).To(BeFalse())
			Expect(c.Cost()).To(BeEquivalentTo(5))
		})

		It("zero ttl is not stored", func() {
			c.Set("a", 1)
			Expect(c.Set("b", 2, WithTTL(0))).To(BeFalse())
			Expect(c.Set("c", 3, WithTTL(-time.Second))).To(BeFalse())
			Expect(c.Has("b")).To(BeFalse())
			Expect(c.Has("c")).To(BeFalse())
			Expect(c.Len()).To(Equal(1))
		})

		It("unfit override deletes old value", func() {
			c.Set("a", 1)
			Expect(c.Set("a", 2, WithCost(100))).To(BeFalse())
			Expect(c.Has("a")).To(BeFalse())
			Expect(c.Cost()).To(BeZero())
		})
	})

	Context("delete", func() {
		BeforeEach(func() {
			c.Set("a", 1, WithCost(2))
			c.Set("b", 2)
		})

		It("found", func() {
			Expect(c.Delete("a")).To(BeTrue())
			Expect(c.Len()).To(Equal(1))
			Expect(c.Cost()).To(BeEquivalentTo(1))
			Expect(c.Has("a")).To(BeFalse())
		})

		It("not found", func() {
			Expect(c.Delete("x")).To(BeFalse())
			Expect(c.Len()).To(Equal(2))
			Expect(c.Cost()).To(BeEquivalentTo(3))
		})

		It("twice", func() {
			Expect(c.Delete("a")).To(BeTrue())
			Expect(c.Delete("a")).To(BeFalse())
			Expect(c.Cost()).To(BeEquivalentTo(1))
		})

		It("expired but not purged is reported as deleted", func() {
			c.Set("c", 3, WithTTL(time.Millisecond))
			clk.Add(time.Millisecond)
			Expect(c.Has("c")).To(BeFalse())
			Expect(c.Len()).To(Equal(3))
			Expect(c.Delete("c")).To(BeTrue())
			Expect(c.Len()).To(Equal(2))
			Expect(c.Cost()).To(BeEquivalentTo(3))
		})
	})

	It("clear", func() {
		c.Set("a", 1)
		c.Set("b", 2, WithTTL(time.Second))
		c.Clear()
		Expect(c.Len()).To(BeZero())
		Expect(c.Cost()).To(BeZero())
		Expect(c.Has("a")).To(BeFalse())
		Expect(c.Set("c", 3)).To(BeTrue())
		Expect(c.recencyKeys()).To(Equal([]string{"c"}))
	})

	Context("eviction", func() {
		It("least recently used", func() {
			By("unit cost items")
			for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
				c.Set(k, 1)
			}
			Expect(c.Len()).To(Equal(5))
			Expect(c.recencyKeys()).To(Equal([]string{"g", "f", "e", "d", "c"}))

			By("heavy item evicts several")
			c.Set("h", 8, WithCost(3))
			Expect(c.Len()).To(Equal(3))
			Expect(c.Cost()).To(BeEquivalentTo(5))
			Expect(c.recencyKeys()).To(Equal([]string{"h", "g", "f"}))
		})

		It("accessed survives", func() {
			for _, k := range []string{"a", "b", "c", "d", "e"} {
				c.Set(k, 1)
			}
			c.Get("a")
			c.Set("f", 1)
			Expect(c.Has("a")).To(BeTrue())
			Expect(c.Has("b")).To(BeFalse())
		})

		It("expired before live", func() {
			c.Set("a", 1)
			c.Set("b", 2)
			c.Set("c", 3, WithTTL(time.Second))
			c.Set("d", 4)
			c.Set("e", 5)
			clk.Add(time.Second)
			c.Set("f", 6)
			Expect(c.recencyKeys()).To(Equal([]string{"f", "e", "d", "b", "a"}))
		})

		It("expired sweep stops when fits", func() {
			c.Set("a", 1, WithTTL(time.Second))
			c.Set("b", 2, WithTTL(time.Second))
			c.Set("c", 3)
			c.Set("d", 4)
			c.Set("e", 5)
			clk.Add(time.Second)
			c.Set("f", 6)
			Expect(c.Len()).To(Equal(5), "only one of expired should be swept")
			Expect(c.Has("c")).To(BeTrue())
			Expect(c.Has("f")).To(BeTrue())
		})

		It("expired and lru both", func() {
			c.Set("a", 1)
			c.Set("b", 2, WithTTL(time.Second))
			c.Set("c", 3)
			c.Set("d", 4)
			c.Set("e", 5)
			clk.Add(time.Second)
			c.Set("f", 6, WithCost(3))
			Expect(c.recencyKeys()).To(Equal([]string{"f", "e", "d"}))
			Expect(c.Cost()).To(BeEquivalentTo(5))
		})

		It("all to fit big one", func() {
			for _, k := range []string{"a", "b", "c"} {
				c.Set(k, 1)
			}
			c.Set("big", 1, WithCost(5))
			Expect(c.recencyKeys()).To(Equal([]string{"big"}))
		})
	})

	Context("limit", func() {
		It("lowering is lazy", func() {
			for _, k := range []string{"a", "b", "c", "d", "e"} {
				c.Set(k, 1)
			}
			c.SetLimit(2)
			Expect(c.Limit()).To(BeEquivalentTo(2))
			Expect(c.Len()).To(Equal(5))
			c.Set("f", 1)
			Expect(c.recencyKeys()).To(Equal([]string{"f", "e"}))
		})

		It("normalized", func() {
			c.SetLimit(-1)
			Expect(c.Limit()).To(BeZero())
			c.SetLimit(math.NaN())
			Expect(c.Limit()).To(Equal(Unbounded))
		})

		It("unbounded never evicts live", func() {
			c = NewCache(math.Inf(1))
			for i := 0; i < 1000; i++ {
				c.Set(testKey(), i, WithCost(1e6))
			}
			Expect(c.Len()).To(Equal(1000))
		})

		It("zero limit stores nothing", func() {
			c = NewCache(0)
			for i := 0; i < 10; i++ {
				Expect(c.Set(testKey(), i)).To(BeFalse())
				Expect(c.Len()).To(BeZero())
				Expect(c.Cost()).To(BeZero())
			}
		})
	})

	Context("ttl", func() {
		It("iterates survivors after eviction and expiration", func() {
			c = NewCache(4)
			c.Set("a", 1, WithTTL(0))
			c.Set("b", 2, WithTTL(50*time.Millisecond))
			c.Set("c", 3, WithTTL(10*time.Millisecond))
			c.Set("d", 4)
			clk.Add(10 * time.Millisecond)
			Expect(c.Has("a")).To(BeFalse())
			Expect(c.Has("b")).To(BeTrue())
			Expect(c.pairs()).To(ConsistOf(
				pair[string, int]{"b", 2},
				pair[string, int]{"d", 4},
			))
		})

		It("lazy expiration", func() {
			c.Set("a", 1, WithTTL(time.Second), WithCost(2))
			c.Set("b", 2)
			clk.Add(time.Second)
			Expect(c.Len()).To(Equal(2), "expired is counted until touched")
			Expect(c.Cost()).To(BeEquivalentTo(3))
			_, ok := c.Get("a")
			Expect(ok).To(BeFalse())
			Expect(c.Len()).To(Equal(1))
			Expect(c.Cost()).To(BeEquivalentTo(1))
		})

		It("alive before deadline", func() {
			c.Set("a", 1, WithTTL(time.Second))
			clk.Add(time.Second - time.Nanosecond)
			v, ok := c.Get("a")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(1))
		})
	})
})
