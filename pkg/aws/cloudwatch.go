package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const logFlushSize = 50

// LogShipper buffers log lines and ships them to one CloudWatch Logs stream.
// It satisfies zapcore.WriteSyncer.
type LogShipper struct {
	client *cloudwatchlogs.Client
	group  string
	stream string

	mu     sync.Mutex
	buffer []types.InputLogEvent
}

// NewLogShipper creates the log group (30 day retention) and a fresh stream.
func NewLogShipper(ctx context.Context, cfg sdkaws.Config, group, streamPrefix string) (*LogShipper, error) {
	s := &LogShipper{
		client: cloudwatchlogs.NewFromConfig(cfg),
		group:  group,
		stream: fmt.Sprintf("%s-%d", streamPrefix, time.Now().Unix()),
	}

	_, err := s.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: sdkaws.String(group)})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return nil, fmt.Errorf("failed to create log group: %w", err)
	}
	if _, err := s.client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    sdkaws.String(group),
		RetentionInDays: sdkaws.Int32(30),
	}); err != nil {
		return nil, fmt.Errorf("failed to set retention policy: %w", err)
	}
	if _, err := s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(group),
		LogStreamName: sdkaws.String(s.stream),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}

	return s, nil
}

func (s *LogShipper) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.buffer = append(s.buffer, types.InputLogEvent{
		Message:   sdkaws.String(string(p)),
		Timestamp: sdkaws.Int64(time.Now().UnixMilli()),
	})
	full := len(s.buffer) >= logFlushSize
	s.mu.Unlock()

	if full {
		_ = s.Sync()
	}
	return len(p), nil
}

// Sync flushes buffered events. Failures are reported on stderr so logging
// never blocks the request path.
func (s *LogShipper) Sync() error {
	s.mu.Lock()
	events := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	if len(events) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(s.group),
		LogStreamName: sdkaws.String(s.stream),
		LogEvents:     events,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs: %v\n", err)
	}
	return nil
}
