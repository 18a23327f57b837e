package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	cfg := FromViper(v)

	if cfg.IndexPrefix != "" {
		t.Errorf("expected empty prefix, got %q", cfg.IndexPrefix)
	}
	if cfg.DefaultBackend != "elasticsearch" {
		t.Errorf("expected elasticsearch default backend, got %q", cfg.DefaultBackend)
	}
	if !cfg.AutoCreateIndex {
		t.Errorf("auto create must default to true")
	}
	if cfg.IndexSettings == nil || cfg.IndexSettings.Shards != 1 || cfg.IndexSettings.Replicas != 0 || cfg.IndexSettings.RefreshInterval != "1s" {
		t.Errorf("unexpected default index settings: %+v", cfg.IndexSettings)
	}
	if cfg.Elasticsearch != nil || cfg.Elasticsearch7 != nil || cfg.OpenSearch != nil {
		t.Errorf("absent sections must stay nil: %+v", cfg)
	}
}

func TestFromViper_PrefixDerivedFromApp(t *testing.T) {
	v := viper.New()
	v.Set("app_name", "Shop")
	v.Set("environment", "Staging")
	if got := FromViper(v).IndexPrefix; got != "shop-staging" {
		t.Errorf("expected shop-staging, got %q", got)
	}

	v = viper.New()
	v.Set("app_name", "Shop")
	if got := FromViper(v).IndexPrefix; got != "shop" {
		t.Errorf("expected shop, got %q", got)
	}

	v = viper.New()
	v.Set("app_name", "Shop")
	v.Set("search.index_prefix", "explicit")
	if got := FromViper(v).IndexPrefix; got != "explicit" {
		t.Errorf("explicit prefix must win, got %q", got)
	}
}

func TestFromViper_Sections(t *testing.T) {
	v := viper.New()
	v.Set("search.default_backend", "opensearch")
	v.Set("search.auto_create_index", false)
	v.Set("search.index_settings.shards", 3)
	v.Set("search.index_settings.refresh_interval", "30s")
	v.Set("search.elasticsearch.addresses", []string{"http://es1:9200", "http://es2:9200"})
	v.Set("search.elasticsearch.username", "elastic")
	v.Set("search.elasticsearch.cloud_id", "deploy:abc")
	v.Set("search.elasticsearch7.addresses", []string{"http://legacy:9200"})
	v.Set("search.opensearch.addresses", []string{"https://os:9200"})
	v.Set("search.opensearch.insecure_skip_tls", true)
	v.Set("search.opensearch.max_retries", 5)

	cfg := FromViper(v)

	if cfg.DefaultBackend != "opensearch" {
		t.Errorf("unexpected backend: %q", cfg.DefaultBackend)
	}
	if cfg.AutoCreateIndex {
		t.Errorf("auto create must be off")
	}
	if cfg.IndexSettings.Shards != 3 || cfg.IndexSettings.Replicas != 0 || cfg.IndexSettings.RefreshInterval != "30s" {
		t.Errorf("unexpected index settings: %+v", cfg.IndexSettings)
	}

	es := cfg.Elasticsearch
	if es == nil || len(es.Addresses) != 2 || es.Username != "elastic" || es.CloudID != "deploy:abc" {
		t.Errorf("unexpected elasticsearch section: %+v", es)
	}
	if es.MaxRetries != 3 {
		t.Errorf("max retries must default to 3, got %d", es.MaxRetries)
	}

	if cfg.Elasticsearch7 == nil || cfg.Elasticsearch7.Addresses[0] != "http://legacy:9200" {
		t.Errorf("unexpected elasticsearch7 section: %+v", cfg.Elasticsearch7)
	}

	os := cfg.OpenSearch
	if os == nil || !os.InsecureSkipTLS || os.MaxRetries != 5 {
		t.Errorf("unexpected opensearch section: %+v", os)
	}
}
