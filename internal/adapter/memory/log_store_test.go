package memory

import (
	"context"
	"testing"
	"time"

	"github.com/launchdeck-platform/market-engine/internal/domain"
)

func TestLogStore_AppendAndList(t *testing.T) {
	s := NewLogStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.Append(ctx, 1, domain.LogEntry{
			Timestamp: time.Now(), Level: domain.LogInfo, Message: "entry",
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	logs, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 3 {
		t.Errorf("len = %d, want 3", len(logs))
	}

	// 读是幂等的：重复 List 返回同样的内容，不消费日志。
	again, _ := s.List(ctx, 1)
	if len(again) != 3 {
		t.Errorf("second read len = %d, want 3", len(again))
	}
}

func TestLogStore_ListReturnsCopy(t *testing.T) {
	s := NewLogStore()
	ctx := context.Background()
	_ = s.Append(ctx, 1, domain.LogEntry{Message: "first"})

	snapshot, _ := s.List(ctx, 1)
	_ = s.Append(ctx, 1, domain.LogEntry{Message: "second"})

	if len(snapshot) != 1 {
		t.Errorf("snapshot mutated by later append, len = %d", len(snapshot))
	}
}

func TestLogStore_ChannelsIsolatedByApp(t *testing.T) {
	s := NewLogStore()
	ctx := context.Background()
	_ = s.Append(ctx, 1, domain.LogEntry{Message: "app one"})
	_ = s.Append(ctx, 2, domain.LogEntry{Message: "app two"})

	logs, _ := s.List(ctx, 1)
	if len(logs) != 1 || logs[0].Message != "app one" {
		t.Errorf("logs = %v, channels leaked across apps", logs)
	}
}

func TestLogStore_ClearResetsChannel(t *testing.T) {
	s := NewLogStore()
	ctx := context.Background()
	_ = s.Append(ctx, 1, domain.LogEntry{Message: "old"})
	_ = s.SetStatus(ctx, 1, domain.ChannelFailed)

	if err := s.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}

	logs, _ := s.List(ctx, 1)
	if len(logs) != 0 {
		t.Errorf("logs survived clear: %v", logs)
	}
	status, _ := s.GetStatus(ctx, 1)
	if status != "" {
		t.Errorf("status = %q, want empty after clear", status)
	}
}

func TestLogStore_StatusUnknownApp(t *testing.T) {
	s := NewLogStore()
	status, err := s.GetStatus(context.Background(), 404)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "" {
		t.Errorf("status = %q, want empty", status)
	}
}
