package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type mockAttendanceRepo struct {
	items   map[string]*models.AttendanceRecord
	creates int
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	return nil, 0, nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.AttendanceDetail, error) {
	if r, ok := m.items[id]; ok {
		d := models.AttendanceDetail{AttendanceRecord: *r}
		d.Decorate()
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) ExistsByKey(ctx context.Context, studentID, courseID string, date time.Time, excludeID string) (bool, error) {
	for id, r := range m.items {
		if r.StudentID == studentID && r.CourseID == courseID && r.Date.Equal(date) && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	m.creates++
	if m.items == nil {
		m.items = make(map[string]*models.AttendanceRecord)
	}
	record.ID = "r-new"
	cp := *record
	m.items[record.ID] = &cp
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.AttendanceRecord) error {
	cp := *record
	m.items[record.ID] = &cp
	return nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return models.DeletedRows{"attendance_records": 1}, nil
}

func newAttendanceService(repo *mockAttendanceRepo) *AttendanceService {
	return NewAttendanceService(repo,
		studentStub{"s1": {ID: "s1"}, "s2": {ID: "s2"}},
		courseStub{"c1": {Course: models.Course{ID: "c1"}}},
		enrollmentStub{"s1|c1": true},
		nil, &fakeCache{}, nil)
}

func TestAttendanceServiceRecord(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo)

	item, err := svc.Record(context.Background(), AttendanceRequest{StudentID: "s1", CourseID: "c1", Date: "2024-04-02", Status: "late"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, item.Status)
	assert.Equal(t, "Late", item.StatusLabel)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), item.Date)
}

func TestAttendanceServiceRejections(t *testing.T) {
	existing := &models.AttendanceRecord{ID: "r1", StudentID: "s1", CourseID: "c1", Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent}
	cases := []struct {
		name string
		req  AttendanceRequest
		want *appErrors.Error
	}{
		{"unknown status", AttendanceRequest{StudentID: "s1", CourseID: "c1", Date: "2024-04-03", Status: "sick"}, appErrors.ErrValidation},
		{"bad date", AttendanceRequest{StudentID: "s1", CourseID: "c1", Date: "2024-13-01", Status: "present"}, appErrors.ErrValidation},
		{"missing course", AttendanceRequest{StudentID: "s1", CourseID: "ghost", Date: "2024-04-03", Status: "present"}, appErrors.ErrNotFound},
		{"not enrolled", AttendanceRequest{StudentID: "s2", CourseID: "c1", Date: "2024-04-03", Status: "present"}, appErrors.ErrNotEnrolled},
		{"same day twice", AttendanceRequest{StudentID: "s1", CourseID: "c1", Date: "2024-04-02", Status: "absent"}, appErrors.ErrDuplicateAttendance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockAttendanceRepo{items: map[string]*models.AttendanceRecord{"r1": existing}}
			_, err := newAttendanceService(repo).Record(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, repo.creates)
		})
	}
}

func TestAttendanceServiceUpdateKeepsOwnDate(t *testing.T) {
	repo := &mockAttendanceRepo{items: map[string]*models.AttendanceRecord{
		"r1": {ID: "r1", StudentID: "s1", CourseID: "c1", Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent},
	}}
	svc := newAttendanceService(repo)

	item, err := svc.Update(context.Background(), "r1", AttendanceRequest{StudentID: "s1", CourseID: "c1", Date: "2024-04-02", Status: "excused"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceExcused, item.Status)
}
