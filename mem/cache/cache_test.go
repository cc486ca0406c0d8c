package cache

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/csim/sim/hooking"
)

func mustBuild(b Builder) *Cache {
	c, err := b.Build("Cache")
	Expect(err).NotTo(HaveOccurred())

	return c
}

var _ = Describe("Cache", func() {
	var (
		mockCtrl *gomock.Controller
		c        *Cache
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		c.Teardown()
		mockCtrl.Finish()
	})

	Context("with one set of one line", func() {
		BeforeEach(func() {
			c = mustBuild(MakeBuilder())
		})

		It("should evict on every alternating address", func() {
			Expect(c.Access(0)).To(Equal(MissNoEviction))
			Expect(c.Access(1)).To(Equal(MissWithEviction))
			Expect(c.Access(0)).To(Equal(MissWithEviction))

			Expect(c.Stats()).To(Equal(Stats{Hits: 0, Misses: 3, Evictions: 2}))
		})
	})

	Context("with two sets of two lines and four-byte blocks", func() {
		BeforeEach(func() {
			c = mustBuild(MakeBuilder().
				WithNumSetBits(1).
				WithWayAssociativity(2).
				WithBlockOffsetBits(2))
		})

		It("should hit the second access to the same address", func() {
			Expect(c.Access(0)).To(Equal(MissNoEviction))
			Expect(c.Access(0)).To(Equal(Hit))

			Expect(c.Stats()).To(Equal(Stats{Hits: 1, Misses: 1, Evictions: 0}))
		})

		It("should hit anywhere within a block", func() {
			c.Access(0x10)

			Expect(c.Access(0x13)).To(Equal(Hit))
			Expect(c.Access(0x14)).To(Equal(MissNoEviction))
		})

		It("should keep sets independent", func() {
			c.Access(0x00)
			c.Access(0x20)

			Expect(c.Access(0x04)).To(Equal(MissNoEviction))
			Expect(c.Access(0x24)).To(Equal(MissNoEviction))
			Expect(c.Stats().Evictions).To(BeZero())
		})

		It("should evict the least recently used block", func() {
			c.Access(0x00) // tag 0, set 0
			c.Access(0x08) // tag 1, set 0
			c.Access(0x00) // tag 0 is now the most recent

			Expect(c.Access(0x10)).To(Equal(MissWithEviction))

			set := c.Set(0)
			Expect(set.Tags()).To(ConsistOf(uint64(0), uint64(2)))
			Expect(c.Access(0x00)).To(Equal(Hit))
			Expect(c.Access(0x08)).To(Equal(MissWithEviction))
		})

		It("should stamp lines with the access clock", func() {
			c.Access(0x00)
			c.Access(0x08)
			c.Access(0x00)

			set := c.Set(0)
			Expect(c.Clock()).To(Equal(uint64(3)))
			Expect(set.Lines[0].LastUsed).To(Equal(uint64(3)))
			Expect(set.Lines[1].LastUsed).To(Equal(uint64(2)))
		})

		It("should answer a modify on a resident block with two hits", func() {
			c.Access(0x00)

			Expect(c.Access(0x00)).To(Equal(Hit))
			Expect(c.Access(0x00)).To(Equal(Hit))
		})

		It("should answer a modify on a new block in a full set with an eviction and a hit", func() {
			c.Access(0x00)
			c.Access(0x08)

			Expect(c.Access(0x10)).To(Equal(MissWithEviction))
			Expect(c.Access(0x10)).To(Equal(Hit))
		})
	})

	Context("with many ways", func() {
		const ways = 8

		BeforeEach(func() {
			c = mustBuild(MakeBuilder().
				WithNumSetBits(3).
				WithWayAssociativity(ways).
				WithBlockOffsetBits(5))
		})

		It("should evict the oldest tag after E distinct tags", func() {
			setStride := uint64(1) << (3 + 5)
			base := uint64(0x2 << 5)

			for i := uint64(0); i < ways; i++ {
				Expect(c.Access(base + i*setStride)).To(Equal(MissNoEviction))
			}

			// Touch every tag but the third one again.
			for i := uint64(0); i < ways; i++ {
				if i != 2 {
					Expect(c.Access(base + i*setStride)).To(Equal(Hit))
				}
			}

			Expect(c.Access(base + ways*setStride)).To(Equal(MissWithEviction))

			_, found := c.Set(2).Lookup(2)
			Expect(found).To(BeFalse())
		})

		It("should never count more evictions than misses", func() {
			r := rand.New(rand.NewSource(7))

			for i := 0; i < 5000; i++ {
				c.Access(uint64(r.Intn(1 << 14)))

				stats := c.Stats()
				Expect(stats.Evictions).To(BeNumerically("<=", stats.Misses))
				Expect(stats.Accesses()).To(Equal(uint64(i + 1)))
			}
		})

		It("should be a pure function of geometry and addresses", func() {
			other := mustBuild(MakeBuilder().
				WithNumSetBits(3).
				WithWayAssociativity(ways).
				WithBlockOffsetBits(5))
			defer other.Teardown()

			r := rand.New(rand.NewSource(11))
			addresses := make([]uint64, 3000)
			for i := range addresses {
				addresses[i] = uint64(r.Intn(1 << 15))
			}

			for _, address := range addresses {
				Expect(c.Access(address)).To(Equal(other.Access(address)))
			}

			Expect(c.Stats()).To(Equal(other.Stats()))
		})
	})

	Context("with hooks", func() {
		BeforeEach(func() {
			c = mustBuild(MakeBuilder().WithNumSetBits(1))
		})

		It("should publish every access", func() {
			hook := NewMockHook(mockCtrl)
			c.AcceptHook(hook)

			hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Domain).To(BeIdenticalTo(c))
				Expect(ctx.Pos).To(BeIdenticalTo(HookPosAccess))
				Expect(ctx.Item).To(Equal(AccessDetail{
					Address: 0x5,
					SetID:   1,
					WayID:   0,
					Tag:     0x2,
					Stamp:   1,
					Outcome: MissNoEviction,
				}))
			})
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
				detail := ctx.Item.(AccessDetail)
				Expect(detail.Outcome).To(Equal(MissWithEviction))
				Expect(detail.EvictedTag).To(Equal(uint64(0x2)))
				Expect(detail.Tag).To(Equal(uint64(0x3)))
				Expect(detail.Stamp).To(Equal(uint64(2)))
			})

			c.Access(0x5)
			c.Access(0x7)
		})
	})

	Context("with a custom victim finder", func() {
		It("should overwrite the line the finder picks", func() {
			finder := NewMockVictimFinder(mockCtrl)
			c = mustBuild(MakeBuilder().
				WithWayAssociativity(2).
				WithVictimFinder(finder))

			c.Access(0)
			c.Access(1)
			finder.EXPECT().FindVictim(c.Set(0)).Return(1)

			Expect(c.Access(2)).To(Equal(MissWithEviction))
			Expect(c.Set(0).Tags()).To(Equal([]uint64{0, 2}))
		})
	})

	Context("teardown", func() {
		BeforeEach(func() {
			c = mustBuild(MakeBuilder())
		})

		It("should be idempotent", func() {
			c.Teardown()

			Expect(c.Teardown).NotTo(Panic())
		})

		It("should do nothing on a nil cache", func() {
			var nilCache *Cache

			Expect(nilCache.Teardown).NotTo(Panic())
		})

		It("should refuse accesses after teardown", func() {
			c.Teardown()

			Expect(func() { c.Access(0) }).To(Panic())
		})
	})
})

var _ = Describe("Outcome", func() {
	It("should render verbose tokens", func() {
		Expect(Hit.String()).To(Equal("hit"))
		Expect(MissNoEviction.String()).To(Equal("miss"))
		Expect(MissWithEviction.String()).To(Equal("miss eviction"))
	})

	It("should classify outcomes", func() {
		Expect(Hit.IsHit()).To(BeTrue())
		Expect(MissNoEviction.IsHit()).To(BeFalse())
		Expect(MissNoEviction.IsEviction()).To(BeFalse())
		Expect(MissWithEviction.IsEviction()).To(BeTrue())
	})
})
