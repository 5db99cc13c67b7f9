// Package config loads chaski settings with Viper.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// CHASKI_* environment variables. Command-line flags are applied by the
// caller on top of the loaded [Config]. The file is read from --config when
// given, otherwise from $XDG_CONFIG_HOME/chaski/config.yaml, otherwise from
// chaski.yaml in the working directory. A missing default file is not an
// error.
//
// Nested keys map to environment variables by replacing dots with
// underscores, so cache.redis_url is CHASKI_CACHE_REDIS_URL. The GitHub
// token is also read from GITHUB_TOKEN.
package config
