package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dlrntm-png/bangguy/internal/blob"
	"github.com/dlrntm-png/bangguy/internal/model"
	"github.com/dlrntm-png/bangguy/internal/repository"
)

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[int64]*model.AttendanceRecord
	nextID  int64
	err     error // 非空时所有查询返回该错误
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[int64]*model.AttendanceRecord), nextID: 1}
}

func (m *mockAttendanceRepo) Create(_ context.Context, record *model.AttendanceRecord) error {
	if m.err != nil {
		return m.err
	}
	// 模拟 image_hash 部分唯一索引
	if record.ImageHash != nil {
		for _, r := range m.records {
			if r.ImageHash != nil && *r.ImageHash == *record.ImageHash {
				return fmt.Errorf("duplicate key value violates unique constraint \"uniq_attendance_image_hash\"")
			}
		}
	}
	record.ID = m.nextID
	m.nextID++
	m.records[record.ID] = record
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id int64) (*model.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) LastByEmployee(_ context.Context, employeeID string) (*model.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var last *model.AttendanceRecord
	for _, r := range m.records {
		if r.EmployeeID != employeeID {
			continue
		}
		if last == nil || r.ServerTime.After(last.ServerTime) {
			last = r
		}
	}
	if last == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return last, nil
}

func (m *mockAttendanceRepo) FindByImageHash(_ context.Context, hash string) (*model.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.records {
		if r.ImageHash != nil && *r.ImageHash == hash {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) Query(_ context.Context, filters repository.RecordFilters) ([]model.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if filters.EmployeeID != "" && r.EmployeeID != filters.EmployeeID {
			continue
		}
		if !filters.StartTime.IsZero() && r.ServerTime.Before(filters.StartTime) {
			continue
		}
		if !filters.EndTime.IsZero() && !r.ServerTime.Before(filters.EndTime) {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ServerTime.After(result[j].ServerTime) })
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListAll(_ context.Context) ([]model.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.AttendanceRecord
	for _, r := range m.records {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ServerTime.Before(result[j].ServerTime) })
	return result, nil
}

func (m *mockAttendanceRepo) ListForCleanup(_ context.Context, start, end time.Time) ([]model.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.ServerTime.Before(start) || !r.ServerTime.Before(end) {
			continue
		}
		if r.PhotoURL == nil {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ServerTime.Before(result[j].ServerTime) })
	return result, nil
}

func (m *mockAttendanceRepo) DeleteByIDs(_ context.Context, ids []int64) ([]model.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var removed []model.AttendanceRecord
	for _, id := range ids {
		if r, ok := m.records[id]; ok {
			removed = append(removed, *r)
			delete(m.records, id)
		}
	}
	return removed, nil
}

func (m *mockAttendanceRepo) DeleteAll(_ context.Context) ([]model.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var removed []model.AttendanceRecord
	for id, r := range m.records {
		removed = append(removed, *r)
		delete(m.records, id)
	}
	return removed, nil
}

func (m *mockAttendanceRepo) ClearPhotoFields(_ context.Context, id int64, deletedAt time.Time) error {
	if r, ok := m.records[id]; ok {
		r.PhotoURL = nil
		r.PhotoBlobPath = nil
		r.ImageHash = nil
		r.PhotoDeletedAt = &deletedAt
	}
	return nil
}

func (m *mockAttendanceRepo) MarkCleaned(_ context.Context, ids []int64, backupBlobPath *string, backupGeneratedAt *time.Time, deletedAt time.Time) (int64, error) {
	var count int64
	for _, id := range ids {
		r, ok := m.records[id]
		if !ok {
			continue
		}
		r.PhotoURL = nil
		r.PhotoBlobPath = nil
		r.ImageHash = nil
		r.PhotoDeletedAt = &deletedAt
		if backupBlobPath != nil {
			r.BackupBlobPath = backupBlobPath
		}
		if backupGeneratedAt != nil {
			r.BackupGeneratedAt = backupGeneratedAt
		}
		count++
	}
	return count, nil
}

func (m *mockAttendanceRepo) UpdateDeviceID(_ context.Context, employeeID, deviceID string) (int64, error) {
	var count int64
	for _, r := range m.records {
		if r.EmployeeID == employeeID {
			r.DeviceID = deviceID
			count++
		}
	}
	return count, nil
}

// ── Mock DeviceRequestRepository ──

type mockDeviceRequestRepo struct {
	requests map[string]*model.DeviceRequest
}

func newMockDeviceRequestRepo() *mockDeviceRequestRepo {
	return &mockDeviceRequestRepo{requests: make(map[string]*model.DeviceRequest)}
}

func (m *mockDeviceRequestRepo) Create(_ context.Context, request *model.DeviceRequest) error {
	m.requests[request.RequestID] = request
	return nil
}

func (m *mockDeviceRequestRepo) FindPending(_ context.Context, employeeID, deviceID string) (*model.DeviceRequest, error) {
	for _, r := range m.requests {
		if r.EmployeeID == employeeID && r.DeviceID == deviceID && r.Status == model.DeviceRequestPending {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceRequestRepo) GetByRequestID(_ context.Context, requestID string) (*model.DeviceRequest, error) {
	if r, ok := m.requests[requestID]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceRequestRepo) List(_ context.Context, status string) ([]model.DeviceRequest, error) {
	var result []model.DeviceRequest
	for _, r := range m.requests {
		if status != "" && r.Status != status {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.After(result[j].RequestedAt) })
	return result, nil
}

func (m *mockDeviceRequestRepo) Complete(_ context.Context, requestID, status string, completedAt time.Time) error {
	r, ok := m.requests[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Status = status
	switch status {
	case model.DeviceRequestApproved:
		r.ApprovedAt = &completedAt
	case model.DeviceRequestRejected:
		r.RejectedAt = &completedAt
	}
	return nil
}

// ── Mock CleanupJobRepository ──

type mockCleanupJobRepo struct {
	jobs   map[int64]*model.CleanupJob
	nextID int64
}

func newMockCleanupJobRepo() *mockCleanupJobRepo {
	return &mockCleanupJobRepo{jobs: make(map[int64]*model.CleanupJob), nextID: 1}
}

func (m *mockCleanupJobRepo) Create(_ context.Context, job *model.CleanupJob) error {
	job.ID = m.nextID
	m.nextID++
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *mockCleanupJobRepo) GetByID(_ context.Context, id int64) (*model.CleanupJob, error) {
	if j, ok := m.jobs[id]; ok {
		return j, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCleanupJobRepo) LatestForPeriod(_ context.Context, start, end time.Time) (*model.CleanupJob, error) {
	var latest *model.CleanupJob
	for _, j := range m.jobs {
		if !j.PeriodStart.Equal(start) || !j.PeriodEnd.Equal(end) {
			continue
		}
		if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
			latest = j
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockCleanupJobRepo) Update(_ context.Context, id int64, updates map[string]interface{}) (*model.CleanupJob, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "status":
			j.Status = v.(string)
		case "executed_at":
			t := v.(time.Time)
			j.ExecutedAt = &t
		case "finished_at":
			t := v.(time.Time)
			j.FinishedAt = &t
		case "total_records":
			j.TotalRecords = v.(int)
		case "total_photos":
			j.TotalPhotos = v.(int)
		case "total_bytes":
			j.TotalBytes = v.(int64)
		case "error":
			if v == nil {
				j.Error = nil
			} else {
				s := v.(string)
				j.Error = &s
			}
		}
	}
	j.UpdatedAt = time.Now()
	return j, nil
}

// ── Mock AllowedIPRepository ──

type mockAllowedIPRepo struct {
	rows   []model.AllowedIP
	nextID int64
}

func newMockAllowedIPRepo() *mockAllowedIPRepo {
	return &mockAllowedIPRepo{nextID: 1}
}

func (m *mockAllowedIPRepo) Create(_ context.Context, ip *model.AllowedIP) error {
	for _, r := range m.rows {
		if r.IPCIDR == ip.IPCIDR {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	ip.ID = m.nextID
	m.nextID++
	m.rows = append(m.rows, *ip)
	return nil
}

func (m *mockAllowedIPRepo) List(_ context.Context) ([]model.AllowedIP, error) {
	return append([]model.AllowedIP(nil), m.rows...), nil
}

func (m *mockAllowedIPRepo) Delete(_ context.Context, id int64) error {
	out := m.rows[:0]
	for _, r := range m.rows {
		if r.ID != id {
			out = append(out, r)
		}
	}
	m.rows = out
	return nil
}

// ── Mock AdminCredentialRepository ──

type mockAdminCredRepo struct {
	hash string
}

func (m *mockAdminCredRepo) Get(_ context.Context) (*model.AdminCredential, error) {
	if m.hash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.AdminCredential{ID: 1, PasswordHash: m.hash}, nil
}

func (m *mockAdminCredRepo) Upsert(_ context.Context, passwordHash string) error {
	m.hash = passwordHash
	return nil
}

// ── Mock blob.Store ──

type mockBlobStore struct {
	objects   map[string][]byte
	uploaded  []string
	deleted   []string
	failPaths map[string]bool // 删除时报错的路径
	uploadErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{
		objects:   make(map[string][]byte),
		failPaths: make(map[string]bool),
	}
}

func (m *mockBlobStore) Upload(_ context.Context, prefix, filename string, data []byte, _ string) (*blob.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	pathname := fmt.Sprintf("%s/%d-%s", prefix, len(m.objects), filename)
	m.objects[pathname] = data
	m.uploaded = append(m.uploaded, pathname)
	return &blob.UploadResult{
		URL:      "https://blob.test/" + pathname,
		Pathname: pathname,
		Size:     int64(len(data)),
	}, nil
}

func (m *mockBlobStore) UploadText(_ context.Context, pathname string, data []byte, _ string) (*blob.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.objects[pathname] = data
	m.uploaded = append(m.uploaded, pathname)
	return &blob.UploadResult{
		URL:      "https://blob.test/" + pathname,
		Pathname: pathname,
		Size:     int64(len(data)),
	}, nil
}

func (m *mockBlobStore) Read(_ context.Context, pathname string) ([]byte, error) {
	if data, ok := m.objects[pathname]; ok {
		return data, nil
	}
	return nil, blob.ErrNotFound
}

func (m *mockBlobStore) Delete(_ context.Context, pathname string) error {
	if m.failPaths[pathname] {
		return fmt.Errorf("접근 거부: %s", pathname)
	}
	delete(m.objects, pathname)
	m.deleted = append(m.deleted, pathname)
	return nil
}

func (m *mockBlobStore) Exists(_ context.Context, pathname string) (bool, error) {
	_, ok := m.objects[pathname]
	return ok, nil
}

func (m *mockBlobStore) List(_ context.Context, prefix string) ([]blob.Object, error) {
	var result []blob.Object
	for p, data := range m.objects {
		if prefix != "" && !strings.HasPrefix(p, prefix) {
			continue
		}
		result = append(result, blob.Object{
			Pathname:   p,
			Size:       int64(len(data)),
			UploadedAt: time.Now(),
			URL:        "https://blob.test/" + p,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Pathname < result[j].Pathname })
	return result, nil
}

// ── Mock mail.Sender ──

type mockMailSender struct {
	sent []string // subject 列表
	err  error
}

func (m *mockMailSender) Send(_ []string, subject, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, subject)
	return nil
}

// newTestRepository 组装全 mock 的 Repository 聚合
func newTestRepository() (*repository.Repository, *mockAttendanceRepo, *mockDeviceRequestRepo, *mockCleanupJobRepo, *mockAllowedIPRepo, *mockAdminCredRepo) {
	attendance := newMockAttendanceRepo()
	device := newMockDeviceRequestRepo()
	cleanup := newMockCleanupJobRepo()
	allowedIP := newMockAllowedIPRepo()
	adminCred := &mockAdminCredRepo{}
	repo := &repository.Repository{
		Attendance:    attendance,
		DeviceRequest: device,
		CleanupJob:    cleanup,
		AllowedIP:     allowedIP,
		AdminCred:     adminCred,
	}
	return repo, attendance, device, cleanup, allowedIP, adminCred
}
