package azure_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/azrelay/pkg/azure"
)

var _ = Describe("Endpoint", func() {
	Describe("NewEndpoint", func() {
		It("derives the base URL from the resource name", func() {
			e, err := azure.NewEndpoint("myres", "", "2024-02-01")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.BaseURL).To(Equal("https://myres.openai.azure.com"))
			Expect(e.APIVersion).To(Equal("2024-02-01"))
		})

		It("prefers an explicit endpoint and trims the trailing slash", func() {
			e, err := azure.NewEndpoint("myres", "http://127.0.0.1:9999/", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.BaseURL).To(Equal("http://127.0.0.1:9999"))
		})

		It("falls back to the default api version", func() {
			e, err := azure.NewEndpoint("myres", "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.APIVersion).To(Equal(azure.DefaultAPIVersion))
		})

		It("requires a resource or endpoint", func() {
			_, err := azure.NewEndpoint("", "  ", "")
			Expect(err).To(MatchError(azure.ErrNoResource))
		})
	})

	Describe("URL", func() {
		It("builds the deployment URL", func() {
			e, err := azure.NewEndpoint("myres", "", "2023-12-01-preview")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.URL("dep1", azure.OperationChatCompletions)).To(Equal(
				"https://myres.openai.azure.com/openai/deployments/dep1/chat/completions?api-version=2023-12-01-preview",
			))
		})

		It("builds image and completion URLs", func() {
			e, _ := azure.NewEndpoint("r", "", "v")
			Expect(e.URL("d", azure.OperationImageGenerations)).To(HaveSuffix("/deployments/d/images/generations?api-version=v"))
			Expect(e.URL("d", azure.OperationCompletions)).To(HaveSuffix("/deployments/d/completions?api-version=v"))
		})
	})
})

var _ = Describe("OperationForPath", func() {
	DescribeTable("maps inbound paths",
		func(path string, op azure.Operation, ok bool) {
			got, found := azure.OperationForPath(path)
			Expect(found).To(Equal(ok))
			Expect(got).To(Equal(op))
		},
		Entry("chat", "/v1/chat/completions", azure.OperationChatCompletions, true),
		Entry("images", "/v1/images/generations", azure.OperationImageGenerations, true),
		Entry("completions", "/v1/completions", azure.OperationCompletions, true),
		Entry("models is not an operation", "/v1/models", azure.Operation(""), false),
		Entry("unknown", "/v1/embeddings", azure.Operation(""), false),
	)

	It("lists inbound paths in a stable order", func() {
		Expect(azure.InboundPaths()).To(Equal([]string{
			"/v1/chat/completions",
			"/v1/images/generations",
			"/v1/completions",
		}))
	})
})

var _ = Describe("APIKeyFromAuthorization", func() {
	It("strips the bearer prefix", func() {
		Expect(azure.APIKeyFromAuthorization("Bearer sk-123")).To(Equal("sk-123"))
	})

	It("passes a raw key through", func() {
		Expect(azure.APIKeyFromAuthorization("sk-123")).To(Equal("sk-123"))
	})
})
