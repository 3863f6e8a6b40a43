package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type ServerConfig struct {
	Scheduler  Scheduler
	Buffer     Buffer
	Capacity   Capacity
	Store      Store
	Queue      Queue
	ImageStore ImageStore
	Endpoints  Endpoints
}

func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	err := envconfig.Process("", &cfg)
	if err != nil {
		return ServerConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func (c *ServerConfig) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if c.Buffer.LookaheadSize <= 0 {
		return fmt.Errorf("buffer lookahead size must be positive, got %d", c.Buffer.LookaheadSize)
	}
	if c.Buffer.MaxRetryAttempts <= 0 {
		return fmt.Errorf("buffer max retry attempts must be positive, got %d", c.Buffer.MaxRetryAttempts)
	}
	return nil
}

type Scheduler struct {
	Strategy     string        `envconfig:"SCHEDULER_STRATEGY" default:"loadbalanced" description:"One of loadbalanced or fifo"`
	PollInterval time.Duration `envconfig:"SCHEDULER_POLL_INTERVAL" default:"1s"`

	// RetryWindow is how long a started job stays invisible before another
	// worker may pick it up again. Scheduler visibility and buffer purge
	// share the RETRY_WINDOW variable so the two can never disagree.
	RetryWindow            time.Duration `envconfig:"RETRY_WINDOW" default:"10m"`
	TileWorkersPerInstance int           `envconfig:"SCHEDULER_TILE_WORKERS_PER_INSTANCE" default:"4"`

	// TargetUtilization is the fraction of an endpoint's estimated capacity
	// the scheduler will fill before deferring new jobs.
	TargetUtilization float64 `envconfig:"SCHEDULER_TARGET_UTILIZATION" default:"0.9"`
	ThrottlingEnabled bool    `envconfig:"SCHEDULER_THROTTLING_ENABLED" default:"true"`
}

func (c *Scheduler) Validate() error {
	if c.TargetUtilization <= 0 {
		return fmt.Errorf("scheduler target utilization must be > 0, got %f", c.TargetUtilization)
	}
	if c.TileWorkersPerInstance <= 0 {
		return fmt.Errorf("scheduler tile workers per instance must be positive, got %d", c.TileWorkersPerInstance)
	}
	switch c.Strategy {
	case "loadbalanced", "fifo":
	default:
		return fmt.Errorf("unknown scheduler strategy %q", c.Strategy)
	}
	return nil
}

type Buffer struct {
	LookaheadSize    int `envconfig:"BUFFER_LOOKAHEAD_SIZE" default:"50"`
	MaxRetryAttempts int `envconfig:"BUFFER_MAX_RETRY_ATTEMPTS" default:"3"`

	// RetryWindow reads the same RETRY_WINDOW variable as the scheduler's
	// visibility window: purge and visibility must agree on when a started
	// job becomes retryable.
	RetryWindow   time.Duration `envconfig:"RETRY_WINDOW" default:"10m"`
	GaugeInterval time.Duration `envconfig:"BUFFER_GAUGE_INTERVAL" default:"60s"`
}

type Capacity struct {
	// DefaultCapacity is used for plain http(s) endpoints and whenever no
	// metadata (cached or live) is available for a managed endpoint.
	DefaultCapacity int `envconfig:"CAPACITY_DEFAULT" default:"10"`

	// PerInstanceConcurrency is the assumed concurrent-request capacity of a
	// single fixed instance, unless overridden by an endpoint tag.
	PerInstanceConcurrency int    `envconfig:"CAPACITY_PER_INSTANCE_CONCURRENCY" default:"4"`
	ConcurrencyTagKey      string `envconfig:"CAPACITY_CONCURRENCY_TAG_KEY" default:"per-instance-concurrency"`

	MetadataTTL       time.Duration `envconfig:"CAPACITY_METADATA_TTL" default:"300s"`
	MetadataCacheSize int64         `envconfig:"CAPACITY_METADATA_CACHE_SIZE" default:"1000"`
}

type Store struct {
	Driver   string `envconfig:"STORE_DRIVER" default:"postgres" description:"One of postgres or sqlite"`
	Host     string `envconfig:"STORE_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_PORT" default:"5432"`
	Database string `envconfig:"STORE_DATABASE" default:"modelrunner"`
	Username string `envconfig:"STORE_USERNAME" default:"postgres"`
	Password string `envconfig:"STORE_PASSWORD" default:"postgres"`
	SSL      bool   `envconfig:"STORE_SSL" default:"false"`

	// Path is only used by the sqlite driver.
	Path string `envconfig:"STORE_PATH" default:"modelrunner.db"`

	AutoMigrate bool `envconfig:"STORE_AUTO_MIGRATE" default:"true"`
}

type Queue struct {
	URL     string `envconfig:"QUEUE_URL" default:"nats://127.0.0.1:4222"`
	Stream  string `envconfig:"QUEUE_STREAM" default:"IMAGE_REQUESTS"`
	Subject string `envconfig:"QUEUE_SUBJECT" default:"IMAGE_REQUESTS.submit"`
	Durable string `envconfig:"QUEUE_DURABLE" default:"model-runner"`
}

type ImageStore struct {
	// BucketURL is a gocloud.dev blob URL, e.g. s3://imagery or
	// file:///var/lib/modelrunner/images.
	BucketURL string `envconfig:"IMAGE_STORE_BUCKET_URL" default:"file:///tmp/modelrunner-images?create_dir=1"`
}

type Endpoints struct {
	// MetadataFile points at a JSON file describing the managed endpoints
	// this deployment can route to. Empty disables metadata lookups, which
	// makes every endpoint fall back to default capacity.
	MetadataFile string `envconfig:"ENDPOINT_METADATA_FILE" default:""`
}
