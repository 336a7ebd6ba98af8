package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aethra/misight/internal/cache"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cache", func() {
	var (
		c   *cache.RistrettoCache
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		c, err = cache.New(nil)
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		c.Close()
	})

	When("setting and getting a value", func() {
		It("returns the stored value", func() {
			Expect(c.Set(ctx, "minerals", "payload", 0)).To(BeTrue())
			c.Wait()

			got, found := c.Get(ctx, "minerals")
			Expect(found).To(BeTrue())
			Expect(got).To(Equal("payload"))
		})
	})

	When("a value is deleted", func() {
		It("is no longer found", func() {
			c.Set(ctx, "mines", 1, 0)
			c.Wait()
			c.Delete(ctx, "mines")

			_, found := c.Get(ctx, "mines")
			Expect(found).To(BeFalse())
		})
	})

	When("a ttl elapses", func() {
		It("expires the value", func() {
			c.Set(ctx, "short", "v", 50*time.Millisecond)
			c.Wait()
			Eventually(func() bool {
				_, found := c.Get(ctx, "short")
				return found
			}).WithTimeout(2 * time.Second).Should(BeFalse())
		})
	})

	When("MaxCost is an entry count", func() {
		It("keeps as many entries as MaxCost allows", func() {
			small, err := cache.New(&cache.Config{MaxCost: 3, NumCounters: 100, BufferItems: 64})
			Expect(err).NotTo(HaveOccurred())
			defer small.Close()

			for _, key := range []string{"minerals", "mines", "provinces"} {
				Expect(small.Set(ctx, key, key, 0)).To(BeTrue())
			}
			small.Wait()

			for _, key := range []string{"minerals", "mines", "provinces"} {
				got, found := small.Get(ctx, key)
				Expect(found).To(BeTrue(), key)
				Expect(got).To(Equal(key))
			}
		})
	})

	Context("GetOrSet", func() {
		It("loads once and serves the cached value afterwards", func() {
			var calls int32
			loader := func(context.Context) (any, error) {
				atomic.AddInt32(&calls, 1)
				return "loaded", nil
			}

			v, err := c.GetOrSet(ctx, "k", time.Minute, loader)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("loaded"))

			v, err = c.GetOrSet(ctx, "k", time.Minute, loader)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("loaded"))
			Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
		})

		It("collapses concurrent loads of the same key", func() {
			var calls int32
			release := make(chan struct{})
			loader := func(context.Context) (any, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 42, nil
			}

			var wg sync.WaitGroup
			results := make([]any, 5)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					v, err := c.GetOrSet(ctx, "shared", time.Minute, loader)
					Expect(err).NotTo(HaveOccurred())
					results[i] = v
				}(i)
			}
			Eventually(func() int32 { return atomic.LoadInt32(&calls) }).Should(Equal(int32(1)))
			close(release)
			wg.Wait()

			Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
			for _, v := range results {
				Expect(v).To(Equal(42))
			}
		})

		It("does not cache loader errors", func() {
			boom := errors.New("backend down")
			_, err := c.GetOrSet(ctx, "err", time.Minute, func(context.Context) (any, error) {
				return nil, boom
			})
			Expect(err).To(MatchError(boom))

			v, err := c.GetOrSet(ctx, "err", time.Minute, func(context.Context) (any, error) {
				return "recovered", nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("recovered"))
		})

		It("returns when the caller's context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			release := make(chan struct{})
			defer close(release)

			done := make(chan error, 1)
			go func() {
				_, err := c.GetOrSet(cctx, "slow", time.Minute, func(context.Context) (any, error) {
					<-release
					return nil, nil
				})
				done <- err
			}()
			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
