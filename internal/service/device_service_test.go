package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/internal/model"
	"github.com/dlrntm-png/bangguy/pkg/kst"
)

func newTestDeviceService(t *testing.T) (DeviceService, *mockAttendanceRepo, *mockDeviceRequestRepo) {
	t.Helper()
	repo, attendance, device, _, _, _ := newTestRepository()
	return NewDeviceService(repo, zap.NewNop()), attendance, device
}

var requestIDPattern = regexp.MustCompile(`^\d{13}-[0-9a-f]{8}$`)

func TestRequestRebind(t *testing.T) {
	svc, _, device := newTestDeviceService(t)
	ctx := context.Background()

	req := &dto.DeviceRebindRequest{EmployeeID: "1001", Name: "김태희", DeviceID: "device-new"}
	if err := svc.RequestRebind(ctx, req); err != nil {
		t.Fatalf("换绑申请失败: %v", err)
	}
	if len(device.requests) != 1 {
		t.Fatalf("应落库 1 条申请，实际=%d", len(device.requests))
	}
	for id, r := range device.requests {
		if !requestIDPattern.MatchString(id) {
			t.Errorf("申请号格式不对: %s", id)
		}
		if r.Status != model.DeviceRequestPending {
			t.Errorf("新申请应为 pending: %s", r.Status)
		}
	}

	// 同一 (员工, 设备) 重复提交被拒
	if err := svc.RequestRebind(ctx, req); !errors.Is(err, ErrDeviceRequestPending) {
		t.Errorf("期望 ErrDeviceRequestPending，实际=%v", err)
	}
}

func TestApproveRebindUpdatesHistory(t *testing.T) {
	svc, attendance, device := newTestDeviceService(t)
	ctx := context.Background()

	// 员工历史记录绑定旧设备
	for i := int64(1); i <= 3; i++ {
		attendance.records[i] = &model.AttendanceRecord{
			ID: i, EmployeeID: "1001", DeviceID: "device-old",
			ServerTime: kst.Now().Add(-time.Duration(i) * time.Hour),
		}
	}
	request := &model.DeviceRequest{
		RequestID: "1700000000000-deadbeef", EmployeeID: "1001",
		Name: "김태희", DeviceID: "device-new",
		RequestedAt: kst.Now(), Status: model.DeviceRequestPending,
	}
	_ = device.Create(ctx, request)

	updated, err := svc.Approve(ctx, request.RequestID)
	if err != nil {
		t.Fatalf("批准失败: %v", err)
	}
	if updated != 3 {
		t.Errorf("期望改写 3 条记录，实际=%d", updated)
	}
	for _, r := range attendance.records {
		if r.DeviceID != "device-new" {
			t.Errorf("记录 %d 应绑定新设备，实际=%s", r.ID, r.DeviceID)
		}
	}
	if request.Status != model.DeviceRequestApproved || request.ApprovedAt == nil {
		t.Errorf("申请应转 approved 并记录时间: %+v", request)
	}

	// 已处理的申请不能再次审批
	if _, err := svc.Approve(ctx, request.RequestID); !errors.Is(err, ErrDeviceRequestCompleted) {
		t.Errorf("期望 ErrDeviceRequestCompleted，实际=%v", err)
	}
}

func TestRejectRebind(t *testing.T) {
	svc, attendance, device := newTestDeviceService(t)
	ctx := context.Background()

	attendance.records[1] = &model.AttendanceRecord{
		ID: 1, EmployeeID: "1001", DeviceID: "device-old", ServerTime: kst.Now(),
	}
	request := &model.DeviceRequest{
		RequestID: "1700000000001-cafebabe", EmployeeID: "1001",
		Name: "김태희", DeviceID: "device-new",
		RequestedAt: kst.Now(), Status: model.DeviceRequestPending,
	}
	_ = device.Create(ctx, request)

	if err := svc.Reject(ctx, request.RequestID); err != nil {
		t.Fatalf("拒绝失败: %v", err)
	}
	if request.Status != model.DeviceRequestRejected || request.RejectedAt == nil {
		t.Errorf("申请应转 rejected 并记录时间: %+v", request)
	}
	// 拒绝不改动历史绑定
	if attendance.records[1].DeviceID != "device-old" {
		t.Error("拒绝后不应改写设备绑定")
	}
}

func TestApproveUnknownRequest(t *testing.T) {
	svc, _, _ := newTestDeviceService(t)
	if _, err := svc.Approve(context.Background(), "no-such-id"); !errors.Is(err, ErrDeviceRequestNotFound) {
		t.Errorf("期望 ErrDeviceRequestNotFound，实际=%v", err)
	}
}

func TestListByStatus(t *testing.T) {
	svc, _, device := newTestDeviceService(t)
	ctx := context.Background()

	for i, status := range []string{model.DeviceRequestPending, model.DeviceRequestApproved, model.DeviceRequestPending} {
		_ = device.Create(ctx, &model.DeviceRequest{
			RequestID: requestIDFor(i), EmployeeID: "100" + string(rune('0'+i)),
			DeviceID: "d", RequestedAt: kst.Now(), Status: status,
		})
	}

	pending, err := svc.List(ctx, model.DeviceRequestPending)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("期望 2 条 pending，实际=%d", len(pending))
	}
	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("期望 3 条全部，实际=%d", len(all))
	}
}

func requestIDFor(i int) string {
	return "170000000000" + string(rune('0'+i)) + "-0000000" + string(rune('a'+i))
}
