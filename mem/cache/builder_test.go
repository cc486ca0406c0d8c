package cache

import (
	"math"
	"math/bits"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Builder", func() {
	It("should build the requested geometry", func() {
		c, err := MakeBuilder().
			WithNumSetBits(4).
			WithWayAssociativity(3).
			WithBlockOffsetBits(6).
			Build("L1")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Name()).To(Equal("L1"))
		Expect(c.NumSets()).To(Equal(16))
		Expect(c.NumWays()).To(Equal(3))
		Expect(c.Stats()).To(BeZero())
	})

	It("should reject a set count that cannot be represented", func() {
		_, err := MakeBuilder().WithNumSetBits(bits.UintSize).Build("L1")

		Expect(err).To(MatchError(ErrSetBitsOverflow))
	})

	It("should reject a set count that does not fit in an int", func() {
		_, err := MakeBuilder().WithNumSetBits(bits.UintSize - 1).Build("L1")

		Expect(err).To(MatchError(ErrSetBitsOverflow))
	})

	DescribeTable("should reject geometries with too many lines",
		func(numSetBits, ways int) {
			c, err := MakeBuilder().
				WithNumSetBits(numSetBits).
				WithWayAssociativity(ways).
				Build("L1")

			Expect(err).To(MatchError(ErrGeometryTooLarge))
			Expect(c).To(BeNil())
		},
		Entry("many sets", 62, 1),
		Entry("many ways", 0, math.MaxInt),
		Entry("both just over the limit", 13, MaxNumLines>>12),
	)

	It("should accept the largest allowed geometry", func() {
		b := MakeBuilder().
			WithNumSetBits(16).
			WithWayAssociativity(MaxNumLines >> 16)

		Expect(b.validate()).To(Succeed())
	})

	It("should report the capacity in bytes", func() {
		c, err := MakeBuilder().
			WithNumSetBits(10).
			WithWayAssociativity(4).
			WithBlockOffsetBits(6).
			Build("L1")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.TotalSize()).To(Equal(uint64(262144)))
	})

	It("should reject a non-positive associativity", func() {
		_, err := MakeBuilder().WithWayAssociativity(0).Build("L1")

		Expect(err).To(MatchError(ErrInvalidWays))
	})

	It("should reject negative bit widths", func() {
		_, err := MakeBuilder().WithNumSetBits(-1).Build("L1")
		Expect(err).To(MatchError(ErrInvalidBits))

		_, err = MakeBuilder().WithBlockOffsetBits(-1).Build("L1")
		Expect(err).To(MatchError(ErrInvalidBits))
	})
})
