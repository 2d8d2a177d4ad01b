package helper

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file if one is present. A missing file is not an
// error; explicit environment variables always win.
func LoadEnv() {
	_ = godotenv.Load()
}

// QdrantConfiguration holds the connection settings for the Qdrant
// vector index.
type QdrantConfiguration struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	UseTLS     bool
	VectorSize int
}

// NewQdrantConfiguration reads the Qdrant configuration from QDRANT_* envs.
func NewQdrantConfiguration() (*QdrantConfiguration, error) {
	LoadEnv()

	config := &QdrantConfiguration{
		Host:       os.Getenv("QDRANT_HOST"),
		Port:       envInt("QDRANT_PORT", 6334),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		Collection: envOr("QDRANT_COLLECTION", "fitness_recommendations"),
		UseTLS:     os.Getenv("QDRANT_USE_TLS") == "true",
		VectorSize: envInt("QDRANT_VECTOR_SIZE", 1536),
	}
	if config.Host == "" {
		return nil, NewError("read qdrant configuration", fmt.Errorf("QDRANT_HOST is not set"))
	}

	return config, nil
}

// Neo4jConfiguration holds the connection settings for the relationship
// graph store.
type Neo4jConfiguration struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewNeo4jConfiguration reads the Neo4j configuration from NEO4J_* envs.
func NewNeo4jConfiguration() (*Neo4jConfiguration, error) {
	LoadEnv()

	config := &Neo4jConfiguration{
		URI:      os.Getenv("NEO4J_URI"),
		Username: os.Getenv("NEO4J_USERNAME"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: envOr("NEO4J_DATABASE", "fitness"),
	}
	if config.URI == "" || config.Username == "" || config.Password == "" {
		return nil, NewError("read neo4j configuration", fmt.Errorf("NEO4J_URI, NEO4J_USERNAME and NEO4J_PASSWORD must be set"))
	}

	return config, nil
}

// OpenAIConfiguration holds the settings for the remote embedding provider.
type OpenAIConfiguration struct {
	APIKey    string
	BaseURL   string
	Model     string
	BatchSize int
}

// NewOpenAIConfiguration reads the OpenAI configuration from OPENAI_* envs.
func NewOpenAIConfiguration() (*OpenAIConfiguration, error) {
	LoadEnv()

	config := &OpenAIConfiguration{
		APIKey:    os.Getenv("OPENAI_API_KEY"),
		BaseURL:   envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:     envOr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		BatchSize: envInt("OPENAI_BATCH_SIZE", 100),
	}
	if config.APIKey == "" {
		return nil, NewError("read openai configuration", fmt.Errorf("OPENAI_API_KEY is not set"))
	}

	return config, nil
}

// PostgresConfiguration holds the connection settings for the pgvector
// backed vector index.
type PostgresConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
}

// NewPostgresConfiguration reads the Postgres configuration from
// POSTGRES_* envs.
func NewPostgresConfiguration() (*PostgresConfiguration, error) {
	LoadEnv()

	config := &PostgresConfiguration{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     envOr("POSTGRES_PORT", "5432"),
		Database: os.Getenv("POSTGRES_DB"),
		Username: os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Schema:   envOr("POSTGRES_SCHEMA", "public"),
	}
	if config.Host == "" || config.Database == "" || config.Username == "" {
		return nil, NewError("read postgres configuration", fmt.Errorf("POSTGRES_HOST, POSTGRES_DB and POSTGRES_USER must be set"))
	}

	return config, nil
}

// ConnectionString builds a lib/pq connection string.
func (c *PostgresConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s search_path=%s sslmode=disable",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.Schema,
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
