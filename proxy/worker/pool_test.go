package worker

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/azrelay/pkg/llm"
)

type fakeRecorder struct {
	mu   sync.Mutex
	jobs []Job
}

func (r *fakeRecorder) Record(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *fakeRecorder) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Job(nil), r.jobs...)
}

// lockedBuffer guards a bytes.Buffer shared by concurrent workers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ = Describe("Worker Pool", func() {
	var (
		wp       *Pool
		recorder *fakeRecorder
		logs     *lockedBuffer
	)

	BeforeEach(func() {
		recorder = &fakeRecorder{}
		logs = &lockedBuffer{}

		var err error
		wp, err = NewPool(&Config{
			Recorder: recorder,
			Logger:   slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		wp.Close()
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			Expect(wp.Enqueue(Job{RequestID: "r1", Operation: "chat/completions"})).To(BeTrue())
		})

		It("returns false once the pool is closed", func() {
			wp.Close()
			Expect(wp.Enqueue(Job{RequestID: "late"})).To(BeFalse())
		})

		It("drops jobs when the queue is full", func() {
			blocking := &blockingRecorder{release: make(chan struct{})}
			full, err := NewPool(&Config{Recorder: blocking, NumWorkers: 1, QueueSize: 1})
			Expect(err).NotTo(HaveOccurred())

			// The worker holds the first job; the second fills the queue.
			Expect(full.Enqueue(Job{RequestID: "1"})).To(BeTrue())
			Eventually(blocking.Started).Should(BeTrue())
			Expect(full.Enqueue(Job{RequestID: "2"})).To(BeTrue())
			Expect(full.Enqueue(Job{RequestID: "3"})).To(BeFalse())

			close(blocking.release)
			full.Close()
		})
	})

	Describe("processing", func() {
		It("hands every job to the recorder before Close returns", func() {
			for _, id := range []string{"a", "b", "c"} {
				wp.Enqueue(Job{RequestID: id, Status: 200})
			}
			wp.Close()

			ids := []string{}
			for _, j := range recorder.Jobs() {
				ids = append(ids, j.RequestID)
			}
			Expect(ids).To(ConsistOf("a", "b", "c"))
		})

		It("logs a completion line with usage", func() {
			wp.Enqueue(Job{
				RequestID:  "req-1",
				Operation:  "chat/completions",
				Model:      "gpt-4",
				Deployment: "dep1",
				Status:     200,
				Streaming:  true,
				Frames:     4,
				Duration:   15 * time.Millisecond,
				Usage:      &llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			})
			wp.Close()

			out := logs.String()
			Expect(out).To(ContainSubstring("relay complete"))
			Expect(out).To(ContainSubstring("request_id=req-1"))
			Expect(out).To(ContainSubstring("deployment=dep1"))
			Expect(out).To(ContainSubstring("frames=4"))
			Expect(out).To(ContainSubstring("prompt_tokens=10"))
		})

		It("logs a warning for jobs that ended with an error", func() {
			wp.Enqueue(Job{RequestID: "req-2", Streaming: true, Err: errors.New("client went away")})
			wp.Close()

			out := logs.String()
			Expect(out).To(ContainSubstring("level=WARN"))
			Expect(out).To(ContainSubstring("client went away"))
		})
	})

	Describe("Close", func() {
		It("is idempotent", func() {
			wp.Close()
			Expect(wp.Close).NotTo(Panic())
		})
	})
})

type blockingRecorder struct {
	mu      sync.Mutex
	started bool
	release chan struct{}
}

func (r *blockingRecorder) Record(Job) {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	<-r.release
}

func (r *blockingRecorder) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}
