// Package archive uploads each cycle's quote batch to S3 as a parquet object.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/rickgao/odds-data/internal/config"
	"github.com/rickgao/odds-data/internal/model"
	"github.com/rickgao/odds-data/internal/version"
)

const uploadTimeout = 2 * time.Minute

// Putter is the subset of *s3.Client the archiver needs.
type Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type quoteRow struct {
	EventID     string  `parquet:"name=event_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	HomeTeam    string  `parquet:"name=home_team, type=BYTE_ARRAY, convertedtype=UTF8"`
	AwayTeam    string  `parquet:"name=away_team, type=BYTE_ARRAY, convertedtype=UTF8"`
	CapturedAt  int64   `parquet:"name=captured_at, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	Bookmaker   string  `parquet:"name=bookmaker, type=BYTE_ARRAY, convertedtype=UTF8"`
	Participant string  `parquet:"name=participant, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price       float64 `parquet:"name=price, type=DOUBLE"`
}

// ParquetArchiver writes one parquet object per appended batch.
type ParquetArchiver struct {
	client      Putter
	bucket      string
	prefix      string
	sport       string
	compression string
	logger      *slog.Logger

	newID func() string
}

// New creates an archiver that uploads through client.
func New(client Putter, cfg config.ArchiveConfig, sport string, logger *slog.Logger) *ParquetArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParquetArchiver{
		client:      client,
		bucket:      cfg.Bucket,
		prefix:      strings.Trim(cfg.Prefix, "/"),
		sport:       sport,
		compression: strings.ToLower(cfg.Compression),
		logger:      logger,
		newID:       uuid.NewString,
	}
}

// NewS3Client builds an S3 client from the archive settings. Static keys
// are used when both are set; otherwise the default AWS chain applies.
func NewS3Client(ctx context.Context, cfg config.ArchiveConfig) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Name implements sink.Sink.
func (a *ParquetArchiver) Name() string { return "parquet" }

// Append encodes records and uploads them as a single object.
func (a *ParquetArchiver) Append(ctx context.Context, records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}

	data, err := a.encode(records)
	if err != nil {
		return err
	}
	key := a.objectKey(records[0].CapturedAt)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":    "parquet",
			"compression":     a.compression,
			"tracker-version": version.Version,
		},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	a.logger.Debug("archived quotes",
		"key", key,
		"records", len(records),
		"bytes", len(data),
	)
	return nil
}

func (a *ParquetArchiver) encode(records []model.QuoteRecord) ([]byte, error) {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, new(quoteRow), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = codec(a.compression)

	for _, r := range records {
		row := quoteRow{
			EventID:     r.EventID,
			HomeTeam:    r.HomeTeam,
			AwayTeam:    r.AwayTeam,
			CapturedAt:  r.CapturedAt.UnixMicro(),
			Bookmaker:   r.Bookmaker,
			Participant: r.Participant,
			Price:       r.Price,
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("write quote row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return mem.Bytes(), nil
}

// objectKey partitions objects by sport and UTC capture date.
func (a *ParquetArchiver) objectKey(capturedAt time.Time) string {
	ts := capturedAt.UTC()
	name := fmt.Sprintf("%s_%s.parquet", ts.Format("20060102T150405Z"), a.newID())
	return path.Join(
		a.prefix,
		"sport="+a.sport,
		"date="+ts.Format("2006-01-02"),
		name,
	)
}

func codec(name string) parquet.CompressionCodec {
	switch name {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}
