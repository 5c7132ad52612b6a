package transport

import (
	"fmt"
	"strings"

	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/record"
)

// DatadogSite identifies a Datadog intake region.
type DatadogSite string

const (
	DatadogSiteUS1   DatadogSite = "datadoghq.com"
	DatadogSiteUS3   DatadogSite = "us3.datadoghq.com"
	DatadogSiteUS5   DatadogSite = "us5.datadoghq.com"
	DatadogSiteEU1   DatadogSite = "datadoghq.eu"
	DatadogSiteAP1   DatadogSite = "ap1.datadoghq.com"
	DatadogSiteGov   DatadogSite = "ddog-gov.com"
)

func datadogIntakeURL(site DatadogSite) string {
	if site == "" {
		site = DatadogSiteUS1
	}
	return fmt.Sprintf("https://http-intake.logs.%s/api/v2/logs", site)
}

var datadogLevelNames = map[level.Level]string{
	level.Trace: "debug",
	level.Debug: "debug",
	level.Info:  "info",
	level.Warn:  "warning",
	level.Error: "error",
}

// DatadogOptions configures the Datadog transport.
type DatadogOptions struct {
	Config
	APIKey  string
	Site    DatadogSite
	Service string
	Tags    []string
	// BatchSize/FlushIntervalMs/MaxRetries/RetryDelayMs default to 50/3000/3/1000.
	BatchSize       int
	FlushIntervalMs int64
	MaxRetries      int
	RetryDelayMs    int64
}

type datadogDoc struct {
	DDSource   string                 `json:"ddsource"`
	DDTags     string                 `json:"ddtags"`
	Hostname   string                 `json:"hostname"`
	Message    string                 `json:"message"`
	Service    string                 `json:"service,omitempty"`
	Status     string                 `json:"status"`
	Timestamp  string                 `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Error      *record.ErrorInfo      `json:"error,omitempty"`
}

// NewDatadog constructs a Datadog HTTP transport with the fixed
// level-remapping transform described in spec §4.8.
func NewDatadog(opts DatadogOptions, runtimeTag, hostname string) *HTTP {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.FlushIntervalMs <= 0 {
		opts.FlushIntervalMs = 3000
	}
	transform := func(records []record.Log) interface{} {
		docs := make([]datadogDoc, len(records))
		for i, r := range records {
			tags := append([]string{}, opts.Tags...)
			tags = append(tags, "runtime:"+runtimeTag)
			if r.Namespace != "" {
				tags = append(tags, "namespace:"+r.Namespace)
			}
			if tid := r.Context["traceId"]; tid != "" {
				tags = append(tags, "trace_id:"+tid)
			}
			if sid := r.Context["spanId"]; sid != "" {
				tags = append(tags, "span_id:"+sid)
			}
			docs[i] = datadogDoc{
				DDSource:   "vestig",
				DDTags:     strings.Join(tags, ","),
				Hostname:   hostname,
				Message:    r.Message,
				Service:    opts.Service,
				Status:     datadogLevelNames[r.Level],
				Timestamp:  r.TimestampISO(),
				Attributes: r.Metadata,
				Error:      r.Error,
			}
		}
		return docs
	}
	headers := map[string]string{"DD-API-KEY": opts.APIKey}
	httpOpts := HTTPOptions{
		BatchConfig: BatchConfig{
			Config:          opts.Config,
			BatchSize:       opts.BatchSize,
			FlushIntervalMs: opts.FlushIntervalMs,
			MaxRetries:      opts.MaxRetries,
			RetryDelayMs:    opts.RetryDelayMs,
		},
		URL:       datadogIntakeURL(opts.Site),
		Method:    "POST",
		Headers:   headers,
		Transform: transform,
	}
	return NewHTTP(httpOpts)
}
