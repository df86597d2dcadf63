// Package config loads flintrock's YAML configuration file and exposes
// it as typed defaults that the CLI layer overlays with explicit flags.
// The CLI reads the providers.ec2 keys region, identity-file, user,
// key-name, instance-type and ami as defaults for the matching --ec2-*
// flags, and modules.spark.version as the --spark-version default. The
// "launch" block and the remaining providers.ec2 keys are decoded into
// Config, but no command reads them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix viper uses for automatic environment-variable
// overrides, e.g. FLINTROCK_PROVIDERS_EC2_REGION overrides
// providers.ec2.region.
const EnvPrefix = "FLINTROCK"

// LaunchDefaults mirrors the "launch" block of the config file.
type LaunchDefaults struct {
	NumSlaves     int    `mapstructure:"num-slaves"`
	InstallSpark  bool   `mapstructure:"install-spark"`
	SparkVersion  string `mapstructure:"spark-version"`
	LaunchTimeout string `mapstructure:"launch-timeout"`
}

// EC2Defaults mirrors the "providers.ec2" block of the config file.
type EC2Defaults struct {
	KeyName                           string `mapstructure:"key-name"`
	IdentityFile                      string `mapstructure:"identity-file"`
	InstanceType                      string `mapstructure:"instance-type"`
	Region                            string `mapstructure:"region"`
	AvailabilityZone                  string `mapstructure:"availability-zone"`
	AMI                               string `mapstructure:"ami"`
	User                              string `mapstructure:"user"`
	SpotPrice                         string `mapstructure:"spot-price"`
	VPCID                             string `mapstructure:"vpc-id"`
	SubnetID                          string `mapstructure:"subnet-id"`
	PlacementGroup                    string `mapstructure:"placement-group"`
	Tenancy                           string `mapstructure:"tenancy"`
	EBSOptimized                      bool   `mapstructure:"ebs-optimized"`
	InstanceInitiatedShutdownBehavior string `mapstructure:"instance-initiated-shutdown-behavior"`
}

// SparkModuleDefaults mirrors the "modules.spark" block.
type SparkModuleDefaults struct {
	Version string `mapstructure:"version"`
}

// Config is the fully decoded contents of the config file.
type Config struct {
	Launch LaunchDefaults `mapstructure:"launch"`

	Providers struct {
		EC2 EC2Defaults `mapstructure:"ec2"`
	} `mapstructure:"providers"`

	Modules struct {
		Spark SparkModuleDefaults `mapstructure:"spark"`
	} `mapstructure:"modules"`
}

// Load reads the config file at path (or the default search path if path
// is empty) and decodes it into a Config. A missing file is tolerated
// only when path was not explicitly requested by the caller.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".flintrock"))
		}
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("launch.install-spark", true)
	v.SetDefault("launch.launch-timeout", "10m")
	v.SetDefault("providers.ec2.instance-type", "m3.medium")
	v.SetDefault("providers.ec2.region", "us-east-1")
	v.SetDefault("providers.ec2.user", "ec2-user")
	v.SetDefault("providers.ec2.tenancy", "default")
	v.SetDefault("providers.ec2.instance-initiated-shutdown-behavior", "stop")
}
