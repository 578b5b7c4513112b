package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
)

type Config struct {
	Service   Service   `yaml:"service"`
	Cache     Cache     `yaml:"cache"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type Service struct {
	URI         string        `yaml:"uri"`
	EvoURI      string        `yaml:"evoURI"`
	Description string        `yaml:"description"`
	SolrURI     string        `yaml:"solrURI"`
	Token       string        `yaml:"token"`
	UserAgent   string        `yaml:"userAgent"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rateLimit"` // requests per second, 0 disables
	RateBurst   int           `yaml:"rateBurst"`
}

type Cache struct {
	Kind          string        `yaml:"kind"` // memory, redis, memcached or none
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	MemcachedAddr string        `yaml:"memcachedAddr"`
}

type Telemetry struct {
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	EnableMetrics bool   `yaml:"enableMetrics"`
	MetricsAddr   string `yaml:"metricsAddr"`
}

// Default is used when no configuration file is given.
func Default() Config {
	return Config{
		Service: Service{
			Timeout:   30 * time.Second,
			RateBurst: 1,
		},
		Cache: Cache{
			Kind: "memory",
			TTL:  5 * time.Minute,
		},
	}
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := Default()
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	if config.Service.URI == "" {
		return Config{}, errors.New("service.uri is required")
	}
	if config.Service.EvoURI == "" {
		// the evolution service sits next to the research object collection
		config.Service.EvoURI, err = rodl.ResolveURI(rodl.EnsureTrailingSlash(config.Service.URI), "../evo/")
		if err != nil {
			return Config{}, err
		}
	}

	return config, nil
}
