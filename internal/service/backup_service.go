package service

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/castellar/prestago/prestago-backend/internal/config"
	"github.com/castellar/prestago/prestago-backend/internal/domain"
)

// BackupService periodically dumps the database and uploads the dump to S3,
// keeping only the most recent N objects.
type BackupService struct {
	client      *s3.Client
	bucket      string
	databaseURL string
	cfg         domain.BackupConfiguration
	logger      zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewBackupService creates a BackupService with an S3 client built from the
// given storage settings.
func NewBackupService(ctx context.Context, s3cfg config.S3Config, databaseURL string, backupCfg domain.BackupConfiguration, logger zerolog.Logger) (*BackupService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3cfg.Region),
	}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &BackupService{
		client:      client,
		bucket:      s3cfg.Bucket,
		databaseURL: databaseURL,
		cfg:         backupCfg,
		logger:      logger.With().Str("component", "backup_service").Logger(),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins the background backup loop
func (s *BackupService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().
		Int32("frequency_hours", s.cfg.FrequencyHours).
		Int32("keep_last", s.cfg.KeepLast).
		Msg("Starting backup service")

	go s.run(ctx)
}

// Stop gracefully stops the backup loop
func (s *BackupService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	s.logger.Info().Msg("Backup service stopped")
}

func (s *BackupService) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(time.Duration(s.cfg.FrequencyHours) * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setStopped()
			return
		case <-s.stopCh:
			s.setStopped()
			return
		case <-ticker.C:
			if err := s.BackupOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Backup failed")
			}
		}
	}
}

func (s *BackupService) setStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// BackupOnce dumps the database, uploads the dump and prunes old backups
func (s *BackupService) BackupOnce(ctx context.Context) error {
	start := time.Now()

	dump, err := s.dumpDatabase(ctx)
	if err != nil {
		return fmt.Errorf("failed to dump database: %w", err)
	}

	key := fmt.Sprintf("backups/prestago-%s.sql", start.UTC().Format("20060102-150405"))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(dump),
		ContentType:   aws.String("application/sql"),
		ContentLength: aws.Int64(int64(len(dump))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	if err := s.pruneOldBackups(ctx); err != nil {
		return err
	}

	s.logger.Info().
		Str("key", key).
		Int("bytes", len(dump)).
		Dur("elapsed", time.Since(start)).
		Msg("Backup completed")
	return nil
}

func (s *BackupService) dumpDatabase(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "pg_dump", "--no-owner", "--no-privileges", s.databaseURL)
	return cmd.Output()
}

// pruneOldBackups deletes everything beyond the newest KeepLast objects
func (s *BackupService) pruneOldBackups(ctx context.Context) error {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("backups/"),
	})
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if int32(len(out.Contents)) <= s.cfg.KeepLast {
		return nil
	}

	objects := out.Contents
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(*objects[j].LastModified)
	})

	for _, obj := range objects[s.cfg.KeepLast:] {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("key", aws.ToString(obj.Key)).Msg("Failed to delete old backup")
		}
	}
	return nil
}
