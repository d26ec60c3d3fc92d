// Package archive is a best-effort uploader that periodically ships a
// JSON snapshot of recent UX transitions and focus history to an S3
// bucket for offline debugging. Grounded on pkg/blocks/store/s3/store.go's
// client-construction pattern (aws-sdk-go-v2/config.LoadDefaultConfig +
// functional s3.Options for endpoint/path-style overrides), generalized
// from block read/write to a single periodic PutObject of a JSON blob.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/voxcore/assistant-sdk/internal/logger"
)

// Config configures the S3 destination for periodic snapshots.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible services
	KeyPrefix       string // prepended to every uploaded object key
	ForcePathStyle  bool
	AccessKeyID     string // optional static credentials; empty uses the default chain
	SecretAccessKey string
	Interval        time.Duration // upload cadence; default 5 minutes
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
}

// Snapshot is the JSON document uploaded on each interval.
type Snapshot struct {
	TakenAt       time.Time   `json:"takenAt"`
	UXTransitions []Event     `json:"uxTransitions"`
	FocusEvents   []Event     `json:"focusEvents"`
}

// Event is one audited occurrence included in a snapshot, mirroring
// internal/auditstore.Event's exported shape without importing it
// (archive only needs the JSON-serializable fields).
type Event struct {
	Kind      string    `json:"kind"`
	Channel   string    `json:"channel,omitempty"`
	FromState string    `json:"fromState,omitempty"`
	ToState   string    `json:"toState,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotSource supplies the data a snapshot is built from; the caller
// decides what it reads.
type SnapshotSource func(ctx context.Context) (Snapshot, error)

// Uploader periodically uploads a Snapshot to S3. Construction never
// fails on a transient network error; upload failures are logged and
// retried on the next tick, since this is purely diagnostic and must
// never affect the directive/focus/UX core.
type Uploader struct {
	client *s3.Client
	cfg    Config
	source SnapshotSource

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds an Uploader from an existing S3 client.
func New(client *s3.Client, cfg Config, source SnapshotSource) *Uploader {
	cfg.applyDefaults()
	return &Uploader{client: client, cfg: cfg, source: source, stop: make(chan struct{})}
}

// NewFromConfig builds an Uploader, constructing its own S3 client from
// cfg the same way pkg/blocks/store/s3/store.go's NewFromConfig does.
func NewFromConfig(ctx context.Context, cfg Config, source SnapshotSource) (*Uploader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return New(client, cfg, source), nil
}

// Start begins the periodic upload loop in a background goroutine.
func (u *Uploader) Start() {
	u.wg.Add(1)
	go u.run()
}

// Stop signals the upload loop to exit and waits for it to finish.
func (u *Uploader) Stop() {
	close(u.stop)
	u.wg.Wait()
}

func (u *Uploader) run() {
	defer u.wg.Done()
	ticker := time.NewTicker(u.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			u.uploadOnce()
		case <-u.stop:
			return
		}
	}
}

func (u *Uploader) uploadOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := u.source(ctx)
	if err != nil {
		logger.Warn("archive: build snapshot failed", "error", err.Error())
		return
	}
	snap.TakenAt = time.Now()

	body, err := json.Marshal(snap)
	if err != nil {
		logger.Warn("archive: marshal snapshot failed", "error", err.Error())
		return
	}

	key := fmt.Sprintf("%s%s.json", u.cfg.KeyPrefix, snap.TakenAt.UTC().Format("20060102T150405Z"))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		logger.Warn("archive: s3 upload failed", "key", key, "error", err.Error())
		return
	}
	logger.Debug("archive: snapshot uploaded", "key", key)
}
