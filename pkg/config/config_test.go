package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			data := `version = 0

[relay]
listen = ":7000"
frame_delay = "5ms"

[azure]
resource_name = "contoso"
api_version = "2024-02-01"
endpoint = "http://localhost:9999"

[admin]
listen = ":7001"

[log]
level = "debug"
json = true
file = "/tmp/azrelay.log"

[[deployments]]
model = "gpt-4"
deployment = "gpt4-prod"

[[deployments]]
model = "gpt-3.5-turbo"
deployment = "gpt35"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Relay.Listen).To(Equal(":7000"))
			Expect(cfg.Relay.FrameDelay).To(Equal("5ms"))
			Expect(cfg.Azure.ResourceName).To(Equal("contoso"))
			Expect(cfg.Azure.APIVersion).To(Equal("2024-02-01"))
			Expect(cfg.Azure.Endpoint).To(Equal("http://localhost:9999"))
			Expect(cfg.Admin.Listen).To(Equal(":7001"))
			Expect(cfg.Log.Level).To(Equal("debug"))
			Expect(cfg.Log.JSON).To(BeTrue())
			Expect(cfg.Log.File).To(Equal("/tmp/azrelay.log"))
			Expect(cfg.Deployments).To(Equal(azure.Deployments{
				{Model: "gpt-4", Deployment: "gpt4-prod"},
				{Model: "gpt-3.5-turbo", Deployment: "gpt35"},
			}))
		})

		It("fills unset fields with defaults", func() {
			data := `[azure]
resource_name = "contoso"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Azure.ResourceName).To(Equal("contoso"))
			Expect(cfg.Azure.APIVersion).To(Equal(defaults.Azure.APIVersion))
			Expect(cfg.Relay.Listen).To(Equal(defaults.Relay.Listen))
			Expect(cfg.Relay.FrameDelay).To(Equal(defaults.Relay.FrameDelay))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[relay\nlisten ="), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})

		It("returns error for unsupported config version", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 7\n"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Azure.ResourceName = "contoso"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			Expect(c.GetTarget()).To(Equal(filepath.Join(tmpDir, "config.toml")))
			data, err := os.ReadFile(c.GetTarget())
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`resource_name = "contoso"`))
		})

		It("creates the override directory when it does not exist", func() {
			dir := filepath.Join(tmpDir, "nested", ".azrelay")

			c, err := config.NewConfiger(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(config.NewDefaultConfig())).To(Succeed())

			_, err = os.Stat(filepath.Join(dir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("nil config"))
		})

		It("round-trips deployments in order", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Deployments = azure.Deployments{
				{Model: "zeta", Deployment: "z"},
				{Model: "alpha", Deployment: "a"},
				{Model: "mid", Deployment: "m"},
			}
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Deployments.Models()).To(Equal([]string{"zeta", "alpha", "mid"}))
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("azure.resource_name", "contoso")).To(Succeed())

			val, err := c.GetConfigValue("azure.resource_name")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("contoso"))
		})

		It("sets a bool config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("log.json", "true")).To(Succeed())

			val, err := c.GetConfigValue("log.json")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("true"))
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("proxy.upstream", "x")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		DescribeTable("rejects invalid values",
			func(key, value string) {
				c, err := config.NewConfiger(tmpDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.SetConfigValue(key, value)).NotTo(Succeed())
			},
			Entry("non-duration frame delay", "relay.frame_delay", "soon"),
			Entry("negative frame delay", "relay.frame_delay", "-5ms"),
			Entry("unknown log level", "log.level", "chatty"),
			Entry("non-bool log.json", "log.json", "maybe"),
		)

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("azure.resource_name", "contoso")).To(Succeed())
			Expect(c.SetConfigValue("relay.listen", ":7000")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Azure.ResourceName).To(Equal("contoso"))
			Expect(cfg.Relay.Listen).To(Equal(":7000"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("relay.frame_delay")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("20ms"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("azure.endpoint")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("nope")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("deployments", func() {
		It("appends new models and replaces existing ones in place", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetDeployment("gpt-4", "dep1")).To(Succeed())
			Expect(c.SetDeployment("gpt-3.5", "dep2")).To(Succeed())
			Expect(c.SetDeployment("gpt-4", "dep3")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Deployments).To(Equal(azure.Deployments{
				{Model: "gpt-4", Deployment: "dep3"},
				{Model: "gpt-3.5", Deployment: "dep2"},
			}))
		})

		It("removes a model", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetDeployment("gpt-4", "dep1")).To(Succeed())
			Expect(c.SetDeployment("gpt-3.5", "dep2")).To(Succeed())
			Expect(c.UnsetDeployment("gpt-4")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Deployments.Models()).To(Equal([]string{"gpt-3.5"}))
		})

		It("errors when removing an unknown model", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.UnsetDeployment("gpt-4")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("gpt-4"))
		})

		It("rejects empty names", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetDeployment("", "dep")).NotTo(Succeed())
			Expect(c.SetDeployment("gpt-4", "")).NotTo(Succeed())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns keys in section order", func() {
			Expect(config.ValidConfigKeys()).To(Equal([]string{
				"relay.listen",
				"relay.frame_delay",
				"azure.resource_name",
				"azure.api_version",
				"azure.endpoint",
				"admin.listen",
				"log.level",
				"log.json",
				"log.file",
			}))
		})

		It("agrees with IsValidConfigKey", func() {
			for _, k := range config.ValidConfigKeys() {
				Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
			}
			Expect(config.IsValidConfigKey("deployments")).To(BeFalse())
			Expect(config.IsValidConfigKey("listen")).To(BeFalse())
		})
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Deployments).To(BeEmpty())
		Expect(cfg.Relay.Listen).To(BeEmpty())
	})

	It("returns error for invalid TOML", func() {
		_, err := config.ParseConfigTOML([]byte("not = [valid"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("FrameDelayDuration", func() {
	It("parses the default", func() {
		d, err := config.NewDefaultConfig().FrameDelayDuration()
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Milliseconds()).To(Equal(int64(20)))
	})

	It("treats empty as zero", func() {
		cfg := &config.Config{}
		d, err := cfg.FrameDelayDuration()
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeZero())
	})
})
