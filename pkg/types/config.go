package types

import "time"

// EngineBackend identifies the analyzer that produces model records.
type EngineBackend string

const (
	EngineLocal     EngineBackend = "local"
	EngineContainer EngineBackend = "container"
	EngineHTTP      EngineBackend = "http"
)

// StorageBackend identifies where artifacts are written.
type StorageBackend string

const (
	StorageDisk StorageBackend = "disk"
	StorageS3   StorageBackend = "s3"
)

// ParseConfig holds the per-document pipeline settings. Every dump and draw
// flag is independent of the others.
type ParseConfig struct {
	// Method selects the pipeline: auto, txt, or ocr (default auto).
	Method Method `json:"method" yaml:"method" mapstructure:"method"`

	// InsideModel permits running model inference when no cached
	// model.json exists. When false a cache miss aborts the run.
	InsideModel bool `json:"inside_model" yaml:"inside_model" mapstructure:"inside_model"`

	// DropMode controls which pages are omitted from Markdown and the
	// content list: none, single_page, or whole_pdf.
	DropMode string `json:"drop_mode" yaml:"drop_mode" mapstructure:"drop_mode"`

	// MakeMode selects the Markdown flavour: mm_md or nlp_md.
	MakeMode string `json:"make_mode" yaml:"make_mode" mapstructure:"make_mode"`

	DrawLayoutBBox  bool `json:"draw_layout_bbox" yaml:"draw_layout_bbox" mapstructure:"draw_layout_bbox"`
	DrawSpanBBox    bool `json:"draw_span_bbox" yaml:"draw_span_bbox" mapstructure:"draw_span_bbox"`
	DumpMarkdown    bool `json:"dump_md" yaml:"dump_md" mapstructure:"dump_md"`
	DumpMiddleJSON  bool `json:"dump_middle_json" yaml:"dump_middle_json" mapstructure:"dump_middle_json"`
	DumpModelJSON   bool `json:"dump_model_json" yaml:"dump_model_json" mapstructure:"dump_model_json"`
	DumpOrigPDF     bool `json:"dump_orig_pdf" yaml:"dump_orig_pdf" mapstructure:"dump_orig_pdf"`
	DumpContentList bool `json:"dump_content_list" yaml:"dump_content_list" mapstructure:"dump_content_list"`
	DumpHTML        bool `json:"dump_html" yaml:"dump_html" mapstructure:"dump_html"`
}

// EngineConfig holds analyzer settings.
type EngineConfig struct {
	// Backend selects the analyzer: local, container, or http.
	Backend EngineBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Image is the container image used by the container backend.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Runtime names the container client, docker or podman. Empty tries
	// docker then podman.
	Runtime string `json:"runtime" yaml:"runtime" mapstructure:"runtime"`

	// Endpoint is the base URL of the inference service for the http backend.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey is sent as a bearer token by the http backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds a single http analyzer request (0 means no timeout).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of 429 retries for the http backend (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// S3Config holds S3 artifact storage settings.
type S3Config struct {
	Region    string `json:"region" yaml:"region" mapstructure:"region"`
	Bucket    string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Prefix    string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" mapstructure:"secret_key"`
}

// StorageConfig selects and configures the artifact storage backend.
type StorageConfig struct {
	Backend StorageBackend `json:"backend" yaml:"backend" mapstructure:"backend"`
	S3      S3Config       `json:"s3" yaml:"s3" mapstructure:"s3"`
}

// BatchConfig holds settings for the batch runner.
type BatchConfig struct {
	// Workers is the number of documents processed at once (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// Progress shows a progress bar on stderr.
	Progress bool `json:"progress" yaml:"progress" mapstructure:"progress"`
}

// LedgerConfig holds settings for the run history database.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables the ledger.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all settings for a pdfbatch run.
type Config struct {
	Parse   ParseConfig   `json:"parse" yaml:"parse" mapstructure:"parse"`
	Engine  EngineConfig  `json:"engine" yaml:"engine" mapstructure:"engine"`
	Storage StorageConfig `json:"storage" yaml:"storage" mapstructure:"storage"`
	Batch   BatchConfig   `json:"batch" yaml:"batch" mapstructure:"batch"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
