package modelscmder_test

import (
	"bytes"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	modelscmder "github.com/papercomputeco/azrelay/cmd/azrelay/models"
	"github.com/papercomputeco/azrelay/pkg/config"
)

var _ = Describe("Models command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := modelscmder.NewModelsCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .azrelay/ config directory")
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SilenceUsage = true
		return cmd.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		for _, name := range []string{"DEPLOY_NAMES", "AZRELAY_DEPLOYMENTS"} {
			GinkgoT().Setenv(name, "")
			os.Unsetenv(name)
		}
	})

	It("has list, set, and unset subcommands", func() {
		cmd := modelscmder.NewModelsCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ConsistOf("list", "set", "unset"))
	})

	It("persists mappings in the order they were set", func() {
		Expect(run("set", "gpt-4", "gpt4-prod")).To(Succeed())
		Expect(run("set", "gpt-35-turbo", "gpt35")).To(Succeed())
		Expect(run("set", "gpt-4", "gpt4-eu")).To(Succeed())

		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Deployments.Models()).To(Equal([]string{"gpt-4", "gpt-35-turbo"}))

		dep, ok := cfg.Deployments.Lookup("gpt-4")
		Expect(ok).To(BeTrue())
		Expect(dep).To(Equal("gpt4-eu"))
	})

	It("lists one pair per line when not on a terminal", func() {
		Expect(run("set", "gpt-4", "gpt4-prod")).To(Succeed())
		Expect(run("set", "gpt-35-turbo", "gpt35")).To(Succeed())

		out.Reset()
		Expect(run("list")).To(Succeed())
		Expect(out.String()).To(Equal("gpt-4 gpt4-prod\ngpt-35-turbo gpt35\n"))
	})

	It("prints the mapping as an ordered JSON object", func() {
		Expect(run("set", "gpt-4", "gpt4-prod")).To(Succeed())
		Expect(run("set", "gpt-35-turbo", "gpt35")).To(Succeed())

		out.Reset()
		Expect(run("list", "--json")).To(Succeed())
		Expect(out.String()).To(Equal(`{"gpt-4":"gpt4-prod","gpt-35-turbo":"gpt35"}` + "\n"))
	})

	It("lets DEPLOY_NAMES replace the stored mapping", func() {
		Expect(run("set", "gpt-4", "gpt4-prod")).To(Succeed())
		GinkgoT().Setenv("DEPLOY_NAMES", `{"text-davinci-003":"davinci"}`)

		out.Reset()
		Expect(run("list")).To(Succeed())
		Expect(out.String()).To(Equal("text-davinci-003 davinci\n"))
	})

	It("reports an empty mapping", func() {
		Expect(run("list")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No model deployments configured."))
	})

	It("removes a mapping", func() {
		Expect(run("set", "gpt-4", "gpt4-prod")).To(Succeed())
		Expect(run("unset", "gpt-4")).To(Succeed())

		out.Reset()
		Expect(run("list", "--json")).To(Succeed())
		Expect(out.String()).To(Equal("{}\n"))
	})

	It("fails to remove an unknown model", func() {
		err := run("unset", "gpt-4")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(`"gpt-4"`))
	})

	It("requires a model and a deployment", func() {
		Expect(run("set", "gpt-4")).NotTo(Succeed())
	})
})
