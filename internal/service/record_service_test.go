package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/internal/model"
	"github.com/dlrntm-png/bangguy/pkg/kst"
)

func newTestRecordService(t *testing.T) (RecordService, *mockAttendanceRepo, *mockBlobStore) {
	t.Helper()
	repo, attendance, _, _, _, _ := newTestRepository()
	store := newMockBlobStore()
	return NewRecordService(repo, store, zap.NewNop()), attendance, store
}

func seedRecord(attendance *mockAttendanceRepo, store *mockBlobStore, id int64, serverTime time.Time) {
	path := "attendance/photo-" + string(rune('a'+id)) + ".jpg"
	url := "https://blob.test/" + path
	store.objects[path] = []byte("jpeg")
	attendance.records[id] = &model.AttendanceRecord{
		ID: id, EmployeeID: "1001", Name: "김태희", IP: "175.120.139.10",
		ServerTime: serverTime, DeviceID: "device-a",
		PhotoURL: &url, PhotoBlobPath: &path, PhotoSize: 100,
	}
	if id >= attendance.nextID {
		attendance.nextID = id + 1
	}
}

func TestListRejectsDateAndMonthTogether(t *testing.T) {
	svc, _, _ := newTestRecordService(t)
	_, err := svc.List(context.Background(), &dto.RecordListRequest{Date: "2026-01-05", Month: "2026-01"})
	if !errors.Is(err, ErrConflictingFilters) {
		t.Errorf("期望 ErrConflictingFilters，实际=%v", err)
	}
}

func TestListByKSTDay(t *testing.T) {
	svc, attendance, store := newTestRecordService(t)
	// KST 1 月 5 日当天与次日凌晨各一条
	seedRecord(attendance, store, 1, time.Date(2026, 1, 5, 23, 30, 0, 0, kst.Location))
	seedRecord(attendance, store, 2, time.Date(2026, 1, 6, 0, 30, 0, 0, kst.Location))

	items, err := svc.List(context.Background(), &dto.RecordListRequest{Date: "2026-01-05"})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(items) != 1 || items[0].RecordID != 1 {
		t.Errorf("KST 日界过滤不对: %+v", items)
	}
}

func TestDeleteByIDsRemovesPhotos(t *testing.T) {
	svc, attendance, store := newTestRecordService(t)
	now := kst.Now()
	seedRecord(attendance, store, 1, now)
	seedRecord(attendance, store, 2, now.Add(-time.Hour))
	seedRecord(attendance, store, 3, now.Add(-2*time.Hour))

	res, err := svc.Delete(context.Background(), &dto.DeleteRecordsRequest{RecordIDs: []int64{1, 3}})
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if res.Deleted != 2 || res.DeletedFiles != 2 || res.FailedFiles != 0 {
		t.Errorf("删除统计不对: %+v", res)
	}
	if _, ok := attendance.records[2]; !ok {
		t.Error("未选中的记录不应被删除")
	}
	if len(store.objects) != 1 {
		t.Errorf("应剩 1 个照片对象，实际=%d", len(store.objects))
	}
}

func TestDeleteAllContinuesOnBlobFailure(t *testing.T) {
	svc, attendance, store := newTestRecordService(t)
	now := kst.Now()
	seedRecord(attendance, store, 1, now)
	seedRecord(attendance, store, 2, now.Add(-time.Hour))
	store.failPaths["attendance/photo-"+string(rune('a'+1))+".jpg"] = true

	res, err := svc.Delete(context.Background(), &dto.DeleteRecordsRequest{DeleteAll: true})
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if res.Deleted != 2 || res.DeletedFiles != 1 || res.FailedFiles != 1 {
		t.Errorf("删除统计不对: %+v", res)
	}
	if len(attendance.records) != 0 {
		t.Error("记录应全部删除")
	}
}

func TestDeleteRequiresSelection(t *testing.T) {
	svc, _, _ := newTestRecordService(t)
	if _, err := svc.Delete(context.Background(), &dto.DeleteRecordsRequest{}); !errors.Is(err, ErrNoRecordsSelected) {
		t.Errorf("期望 ErrNoRecordsSelected，实际=%v", err)
	}
}

func TestDeletePhotoClearsFields(t *testing.T) {
	svc, attendance, store := newTestRecordService(t)
	seedRecord(attendance, store, 1, kst.Now())

	if err := svc.DeletePhoto(context.Background(), 1); err != nil {
		t.Fatalf("照片删除失败: %v", err)
	}
	r := attendance.records[1]
	if r == nil {
		t.Fatal("记录本身不应被删除")
	}
	if r.PhotoURL != nil || r.PhotoBlobPath != nil || r.PhotoDeletedAt == nil {
		t.Errorf("照片字段应置空并记录删除时间: %+v", r)
	}
	if len(store.objects) != 0 {
		t.Error("照片对象应被删除")
	}

	if err := svc.DeletePhoto(context.Background(), 999); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际=%v", err)
	}
}

func TestExportCSVFormatsKST(t *testing.T) {
	svc, attendance, store := newTestRecordService(t)
	seedRecord(attendance, store, 1, time.Date(2026, 1, 5, 14, 30, 0, 0, kst.Location))

	data, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "server_time,employee_id,name,ip,") {
		t.Errorf("CSV 表头不对: %s", strings.SplitN(text, "\n", 2)[0])
	}
	if !strings.Contains(text, "2026-01-05 14:30:00") {
		t.Errorf("时间应为 KST 格式: %s", text)
	}
}

func TestStorageUsage(t *testing.T) {
	svc, attendance, store := newTestRecordService(t)
	seedRecord(attendance, store, 1, kst.Now())
	store.objects["backups/2026-01/a.csv"] = []byte("csv-data")

	usage, err := svc.StorageUsage(context.Background())
	if err != nil {
		t.Fatalf("用量查询失败: %v", err)
	}
	if usage.TotalObjects != 2 {
		t.Errorf("期望 2 个对象，实际=%d", usage.TotalObjects)
	}
	if usage.TotalBytes != int64(len("jpeg")+len("csv-data")) {
		t.Errorf("总量不对: %d", usage.TotalBytes)
	}
	if usage.ReadableSize == "" {
		t.Error("应给出可读容量")
	}
}

func TestDeleteAllBlobsRequiresConfirm(t *testing.T) {
	svc, attendance, store := newTestRecordService(t)
	seedRecord(attendance, store, 1, kst.Now())

	_, err := svc.DeleteAllBlobs(context.Background(), &dto.DeleteAllBlobsRequest{Confirm: "yes"})
	if !errors.Is(err, ErrConfirmRequired) {
		t.Fatalf("期望 ErrConfirmRequired，实际=%v", err)
	}
	if len(store.objects) != 1 {
		t.Error("未确认时不应删除任何对象")
	}

	res, err := svc.DeleteAllBlobs(context.Background(), &dto.DeleteAllBlobsRequest{Confirm: "DELETE_ALL_BLOBS"})
	if err != nil {
		t.Fatalf("清空失败: %v", err)
	}
	if res.Deleted != 1 || res.Total != 1 {
		t.Errorf("清空统计不对: %+v", res)
	}
	if len(store.objects) != 0 {
		t.Error("对象应全部删除")
	}
}

func TestDeleteAllBlobsWithPrefix(t *testing.T) {
	svc, attendance, store := newTestRecordService(t)
	seedRecord(attendance, store, 1, kst.Now())
	store.objects["backups/2026-01/a.csv"] = []byte("csv")

	res, err := svc.DeleteAllBlobs(context.Background(), &dto.DeleteAllBlobsRequest{
		Prefix: "backups/", Confirm: "DELETE_ALL_BLOBS",
	})
	if err != nil {
		t.Fatalf("清空失败: %v", err)
	}
	if res.Deleted != 1 {
		t.Errorf("应只删除前缀内对象: %+v", res)
	}
	if _, ok := store.objects["backups/2026-01/a.csv"]; ok {
		t.Error("前缀内对象应被删除")
	}
	if len(store.objects) != 1 {
		t.Error("前缀外对象应保留")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d)：期望 %s，实际=%s", tc.in, tc.want, got)
		}
	}
}
