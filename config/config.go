// Package config reads connection and indexing configuration from
// files or the environment through viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the full configuration.
type Config struct {
	IndexPrefix     string         `yaml:"index_prefix" json:"index_prefix"`
	DefaultBackend  string         `yaml:"default_backend" json:"default_backend"`
	AutoCreateIndex bool           `yaml:"auto_create_index" json:"auto_create_index"`
	IndexSettings   *IndexSettings `yaml:"index_settings" json:"index_settings"`
	Elasticsearch   *Elasticsearch `yaml:"elasticsearch" json:"elasticsearch"`
	Elasticsearch7  *Elasticsearch `yaml:"elasticsearch7" json:"elasticsearch7"`
	OpenSearch      *OpenSearch    `yaml:"opensearch" json:"opensearch"`
}

// IndexSettings represents default index configuration.
type IndexSettings struct {
	Shards          int    `yaml:"shards" json:"shards"`
	Replicas        int    `yaml:"replicas" json:"replicas"`
	RefreshInterval string `yaml:"refresh_interval" json:"refresh_interval"`
}

// Elasticsearch elasticsearch config struct, shared by the v7 and v8
// sections.
type Elasticsearch struct {
	Addresses  []string `yaml:"addresses" json:"addresses"`
	Username   string   `yaml:"username" json:"username"`
	Password   string   `yaml:"password" json:"password"`
	CloudID    string   `yaml:"cloud_id" json:"cloud_id"`
	APIKey     string   `yaml:"api_key" json:"api_key"`
	MaxRetries int      `yaml:"max_retries" json:"max_retries"`
}

// OpenSearch opensearch config struct.
type OpenSearch struct {
	Addresses       []string `yaml:"addresses" json:"addresses"`
	Username        string   `yaml:"username" json:"username"`
	Password        string   `yaml:"password" json:"password"`
	InsecureSkipTLS bool     `yaml:"insecure_skip_tls" json:"insecure_skip_tls"`
	MaxRetries      int      `yaml:"max_retries" json:"max_retries"`
}

// Load reads configuration from a file path. Environment variables of
// the form ESODM_SEARCH_DEFAULT_BACKEND override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("esodm")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return FromViper(v), nil
}

// FromViper reads configuration from an already populated viper.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		IndexPrefix:     getIndexPrefix(v),
		DefaultBackend:  getDefaultBackend(v),
		AutoCreateIndex: getAutoCreateIndex(v),
		IndexSettings:   getIndexSettings(v),
		Elasticsearch:   getElasticsearchConfigs(v, "search.elasticsearch"),
		Elasticsearch7:  getElasticsearchConfigs(v, "search.elasticsearch7"),
		OpenSearch:      getOpenSearchConfigs(v),
	}
}

// getIndexPrefix gets the index prefix, derived from app info when not
// set explicitly.
func getIndexPrefix(v *viper.Viper) string {
	if v.IsSet("search.index_prefix") {
		return v.GetString("search.index_prefix")
	}

	appName := v.GetString("app_name")
	environment := v.GetString("environment")
	if appName != "" && environment != "" {
		return strings.ToLower(fmt.Sprintf("%s-%s", appName, environment))
	}
	if appName != "" {
		return strings.ToLower(appName)
	}
	return ""
}

// getDefaultBackend gets the backend used when none is named.
func getDefaultBackend(v *viper.Viper) string {
	if v.IsSet("search.default_backend") {
		return v.GetString("search.default_backend")
	}
	return "elasticsearch"
}

// getAutoCreateIndex gets the auto create index setting.
func getAutoCreateIndex(v *viper.Viper) bool {
	if v.IsSet("search.auto_create_index") {
		return v.GetBool("search.auto_create_index")
	}
	return true
}

// getIndexSettings gets default index settings.
func getIndexSettings(v *viper.Viper) *IndexSettings {
	if !v.IsSet("search.index_settings") {
		return &IndexSettings{Shards: 1, Replicas: 0, RefreshInterval: "1s"}
	}
	return &IndexSettings{
		Shards:          getIntOrDefault(v, "search.index_settings.shards", 1),
		Replicas:        getIntOrDefault(v, "search.index_settings.replicas", 0),
		RefreshInterval: getStringOrDefault(v, "search.index_settings.refresh_interval", "1s"),
	}
}

// getElasticsearchConfigs reads one Elasticsearch section.
func getElasticsearchConfigs(v *viper.Viper, key string) *Elasticsearch {
	if !v.IsSet(key) {
		return nil
	}
	return &Elasticsearch{
		Addresses:  v.GetStringSlice(key + ".addresses"),
		Username:   v.GetString(key + ".username"),
		Password:   v.GetString(key + ".password"),
		CloudID:    v.GetString(key + ".cloud_id"),
		APIKey:     v.GetString(key + ".api_key"),
		MaxRetries: getIntOrDefault(v, key+".max_retries", 3),
	}
}

// getOpenSearchConfigs reads the OpenSearch section.
func getOpenSearchConfigs(v *viper.Viper) *OpenSearch {
	if !v.IsSet("search.opensearch") {
		return nil
	}
	return &OpenSearch{
		Addresses:       v.GetStringSlice("search.opensearch.addresses"),
		Username:        v.GetString("search.opensearch.username"),
		Password:        v.GetString("search.opensearch.password"),
		InsecureSkipTLS: v.GetBool("search.opensearch.insecure_skip_tls"),
		MaxRetries:      getIntOrDefault(v, "search.opensearch.max_retries", 3),
	}
}
