package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dlrntm-png/bangguy/config"
	"github.com/dlrntm-png/bangguy/internal/model"
	"github.com/dlrntm-png/bangguy/pkg/kst"
)

// now 固定在 2026-02-10，上一周期为 2026-01
var cleanupNow = time.Date(2026, 2, 10, 9, 30, 0, 0, kst.Location)

func seedCleanupRecords(attendance *mockAttendanceRepo, store *mockBlobStore, n int) {
	for i := 0; i < n; i++ {
		id := int64(i + 1)
		path := "attendance/2026-01-photo-" + string(rune('a'+i)) + ".jpg"
		url := "https://blob.test/" + path
		hash := strings.Repeat("a", 31) + string(rune('a'+i))
		store.objects[path] = []byte("jpeg")
		attendance.records[id] = &model.AttendanceRecord{
			ID:            id,
			ServerTime:    time.Date(2026, 1, 5+i, 10, 0, 0, 0, kst.Location),
			EmployeeID:    "100" + string(rune('0'+i)),
			Name:          "직원",
			PhotoURL:      &url,
			PhotoBlobPath: &path,
			PhotoSize:     1000,
			ImageHash:     &hash,
		}
		attendance.nextID = id + 1
	}
}

func newTestCleanupService(t *testing.T, sender *mockMailSender) (CleanupService, *mockAttendanceRepo, *mockCleanupJobRepo, *mockBlobStore) {
	t.Helper()
	repo, attendance, _, jobs, _, _ := newTestRepository()
	store := newMockBlobStore()
	cfg := &config.Config{}
	cfg.Cleanup.NotifyEmails = []string{"admin@example.com"}

	var s CleanupService
	if sender != nil {
		s = NewCleanupService(cfg, repo, store, sender, zap.NewNop())
	} else {
		s = NewCleanupService(cfg, repo, store, nil, zap.NewNop())
	}
	return s, attendance, jobs, store
}

func TestCleanupPreviewCreatesBackup(t *testing.T) {
	sender := &mockMailSender{}
	svc, attendance, jobs, store := newTestCleanupService(t, sender)
	seedCleanupRecords(attendance, store, 3)

	res, err := svc.Preview(context.Background(), cleanupNow)
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}
	if res.Period.Label != "2026-01" {
		t.Errorf("周期应为上一自然月：%s", res.Period.Label)
	}
	if res.TotalRecords != 3 || res.TotalPhotos != 3 || res.TotalBytes != 3000 {
		t.Errorf("统计不对: %+v", res)
	}
	if !strings.HasPrefix(res.BackupPath, "backups/2026-01/") || !strings.HasSuffix(res.BackupPath, ".csv") {
		t.Errorf("备份路径不对: %s", res.BackupPath)
	}

	csvData := store.objects[res.BackupPath]
	if csvData == nil {
		t.Fatal("备份 CSV 未上传")
	}
	head := strings.SplitN(string(csvData), "\n", 2)[0]
	if !strings.HasPrefix(head, "record_id,server_time,employee_id") {
		t.Errorf("CSV 表头不对: %s", head)
	}

	if len(jobs.jobs) != 1 {
		t.Fatalf("应登记 1 个作业，实际=%d", len(jobs.jobs))
	}
	if res.Job == nil || res.Job.Status != model.CleanupJobPreview {
		t.Errorf("作业状态应为 preview: %+v", res.Job)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "2026-01") {
		t.Errorf("应发送备份提醒邮件: %v", sender.sent)
	}
}

func TestCleanupPreviewIdempotent(t *testing.T) {
	svc, attendance, jobs, store := newTestCleanupService(t, nil)
	seedCleanupRecords(attendance, store, 2)
	ctx := context.Background()

	first, err := svc.Preview(ctx, cleanupNow)
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}
	second, err := svc.Preview(ctx, cleanupNow)
	if err != nil {
		t.Fatalf("重复预览失败: %v", err)
	}
	if !second.AlreadyDone {
		t.Error("同周期重复预览应返回现有作业")
	}
	if second.Job.ID != first.Job.ID {
		t.Errorf("应复用作业 %d，实际=%d", first.Job.ID, second.Job.ID)
	}
	if len(jobs.jobs) != 1 {
		t.Errorf("不应重复登记作业，实际=%d", len(jobs.jobs))
	}
}

func TestCleanupPreviewRetriesAfterFailure(t *testing.T) {
	svc, attendance, jobs, store := newTestCleanupService(t, nil)
	seedCleanupRecords(attendance, store, 1)

	period := kst.PreviousMonthPeriod(cleanupNow)
	failed := &model.CleanupJob{
		PeriodStart: period.Start, PeriodEnd: period.End, Status: model.CleanupJobFailed,
	}
	_ = jobs.Create(context.Background(), failed)

	res, err := svc.Preview(context.Background(), cleanupNow)
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}
	if res.AlreadyDone {
		t.Error("failed 作业不应阻止重试")
	}
	if len(jobs.jobs) != 2 {
		t.Errorf("重试应登记新作业，实际=%d", len(jobs.jobs))
	}
}

func TestCleanupExecuteDeletesPhotosAndMarksRecords(t *testing.T) {
	svc, attendance, _, store := newTestCleanupService(t, nil)
	seedCleanupRecords(attendance, store, 3)
	ctx := context.Background()

	if _, err := svc.Preview(ctx, cleanupNow); err != nil {
		t.Fatalf("预览失败: %v", err)
	}
	res, err := svc.Execute(ctx, cleanupNow)
	if err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if res.DeletedFiles != 3 || res.UpdatedCount != 3 {
		t.Errorf("期望删除 3 个文件更新 3 条记录，实际=%+v", res)
	}
	if res.Job.Status != model.CleanupJobCompleted {
		t.Errorf("作业应转 completed: %s", res.Job.Status)
	}

	for id, r := range attendance.records {
		if r.PhotoURL != nil || r.PhotoBlobPath != nil || r.ImageHash != nil {
			t.Errorf("记录 %d 的照片字段应被置空", id)
		}
		if r.PhotoDeletedAt == nil {
			t.Errorf("记录 %d 缺少 photo_deleted_at", id)
		}
		if r.BackupBlobPath == nil {
			t.Errorf("记录 %d 应指向备份 CSV", id)
		}
	}
}

func TestCleanupExecutePartialBlobFailure(t *testing.T) {
	svc, attendance, _, store := newTestCleanupService(t, nil)
	seedCleanupRecords(attendance, store, 3)
	store.failPaths["attendance/2026-01-photo-b.jpg"] = true

	res, err := svc.Execute(context.Background(), cleanupNow)
	if err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	// 单个对象删除失败不阻断整体流程
	if res.DeletedFiles != 2 {
		t.Errorf("期望成功删除 2 个文件，实际=%d", res.DeletedFiles)
	}
	if res.UpdatedCount != 3 {
		t.Errorf("记录仍应全部置空，实际=%d", res.UpdatedCount)
	}
	if res.Job.Status != model.CleanupJobCompleted {
		t.Errorf("作业应转 completed: %s", res.Job.Status)
	}
}

func TestCleanupExecuteWithoutPreview(t *testing.T) {
	svc, attendance, jobs, store := newTestCleanupService(t, nil)
	seedCleanupRecords(attendance, store, 1)

	res, err := svc.Execute(context.Background(), cleanupNow)
	if err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if len(jobs.jobs) != 1 {
		t.Errorf("未预览直接执行应自建作业，实际=%d", len(jobs.jobs))
	}
	if res.Job.Status != model.CleanupJobCompleted {
		t.Errorf("作业应转 completed: %s", res.Job.Status)
	}
}
