package indexer

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes the indexer environment, e.g. INDEXER_KAFKA_TOPIC.
const EnvPrefix = "INDEXER"

type Config struct {
	ServerAddr         string   `envconfig:"SERVER_ADDR" default:":8080"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic         string   `envconfig:"KAFKA_TOPIC" default:"relay-logs"`
	KafkaGroupID       string   `envconfig:"KAFKA_GROUP_ID" default:"log-indexer"`
	OpenSearchAddrs    []string `envconfig:"OPENSEARCH_ADDR" default:"https://localhost:9200"`
	OpenSearchUser     string   `envconfig:"OPENSEARCH_USERNAME"`
	OpenSearchPassword string   `envconfig:"OPENSEARCH_PASSWORD"`
	OpenSearchInsecure bool     `envconfig:"OPENSEARCH_INSECURE" default:"false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load indexer config: %w", err)
	}
	return cfg, nil
}
