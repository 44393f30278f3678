package azrelaycmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	azrelaycmder "github.com/papercomputeco/azrelay/cmd/azrelay"
	"github.com/papercomputeco/azrelay/pkg/utils"
)

var _ = Describe("NewAzrelayCmd", func() {
	It("registers every subcommand", func() {
		cmd := azrelaycmder.NewAzrelayCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "check", "config", "models", "version"))
	})

	It("exposes the global flags to subcommands", func() {
		cmd := azrelaycmder.NewAzrelayCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("passes --config-dir through to subcommands", func() {
		dir := GinkgoT().TempDir()
		var out bytes.Buffer

		cmd := azrelaycmder.NewAzrelayCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--config-dir", dir, "config", "set", "azure.resource_name", "contoso"})
		Expect(cmd.Execute()).To(Succeed())

		out.Reset()
		cmd = azrelaycmder.NewAzrelayCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--config-dir", dir, "config", "get", "azure.resource_name"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("contoso"))
		Expect(out.String()).To(ContainSubstring(dir))
	})

	It("prints the short version", func() {
		var out bytes.Buffer
		cmd := azrelaycmder.NewAzrelayCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version", "--short"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(Equal(utils.Version + "\n"))
	})
})
