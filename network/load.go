package network

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding network options,
// e.g. QUORUM_WIZARD_NETWORK_NETWORKID=1337.
const EnvPrefix = "QUORUM_WIZARD"

// LoadConfig reads a saved network config (JSON or YAML, detected by
// extension) and applies environment overrides on top of it.
// The result is not validated.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrapf(err, "couldn't read network config %q", path)
	}
	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"network.name",
		"network.consensus",
		"network.transactionmanager",
		"network.deployment",
		"network.networkid",
		"network.generatekeys",
		"network.configdir",
		"network.quorumversion",
		"network.cakeshop",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return Config{}, errors.Wrapf(err, "couldn't decode network config %q", path)
	}
	return config, nil
}
