package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type sampleDomain struct {
	HookableBase
}

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *sampleDomain
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = &sampleDomain{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke hooks in registration order", func() {
		pos := &HookPos{Name: "Access"}
		ctx := HookCtx{Domain: domain, Pos: pos, Item: 1}

		first := NewMockHook(mockCtrl)
		second := NewMockHook(mockCtrl)
		domain.AcceptHook(first)
		domain.AcceptHook(second)

		gomock.InOrder(
			first.EXPECT().Func(ctx),
			second.EXPECT().Func(ctx),
		)

		domain.InvokeHook(ctx)

		Expect(domain.NumHooks()).To(Equal(2))
		Expect(domain.Hooks()).To(ConsistOf(first, second))
	})

	It("should panic on duplicated hooks", func() {
		hook := NewMockHook(mockCtrl)
		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
	})

	It("should accept plain functions", func() {
		calls := 0
		f := HookFunc(func(ctx HookCtx) { calls++ })

		domain.AcceptHook(f)
		domain.AcceptHook(f)
		domain.InvokeHook(HookCtx{Domain: domain})

		Expect(calls).To(Equal(2))
	})
})
