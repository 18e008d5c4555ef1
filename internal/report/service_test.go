package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/course"
	"attendance/internal/student"
)

type fakeStore struct {
	present    map[string][]PresentStudent
	enrolled   map[string][]StudentInfo
	sessions   map[string]int
	attended   map[string]int
	lastBounds []*time.Time
}

func (f *fakeStore) PresentStudents(ctx context.Context, courseID string, dayStart, dayEnd *time.Time) ([]PresentStudent, error) {
	f.lastBounds = []*time.Time{dayStart, dayEnd}
	return f.present[courseID], nil
}

func (f *fakeStore) EnrolledStudents(ctx context.Context, courseID string) ([]StudentInfo, error) {
	return f.enrolled[courseID], nil
}

func (f *fakeStore) DistinctSessionCount(ctx context.Context, courseID string) (int, error) {
	return f.sessions[courseID], nil
}

func (f *fakeStore) AttendedSessionCount(ctx context.Context, courseID, studentID string, dayStart, dayEnd *time.Time) (int, error) {
	return f.attended[courseID+"|"+studentID], nil
}

type fakeCourses struct {
	list []course.Course
}

func (f *fakeCourses) Get(ctx context.Context, id string) (*course.Course, error) {
	for i := range f.list {
		if f.list[i].ID == id {
			return &f.list[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCourses) List(ctx context.Context) ([]course.Course, error) {
	return f.list, nil
}

type fakeStudents struct {
	list []student.Student
}

func (f *fakeStudents) List(ctx context.Context) ([]student.Student, error) {
	return f.list, nil
}

func TestCourseReportCounts(t *testing.T) {
	enrolled := make([]StudentInfo, 0, 10)
	for i := 0; i < 10; i++ {
		enrolled = append(enrolled, StudentInfo{ID: fmt.Sprintf("s%d", i), Name: fmt.Sprintf("Student %d", i)})
	}
	present := make([]PresentStudent, 0, 6)
	for i := 0; i < 6; i++ {
		present = append(present, PresentStudent{ID: fmt.Sprintf("s%d", i), Timestamp: time.Now()})
	}
	store := &fakeStore{
		present:  map[string][]PresentStudent{"c1": present},
		enrolled: map[string][]StudentInfo{"c1": enrolled},
	}
	svc := NewService(store, &fakeCourses{list: []course.Course{{ID: "c1", Name: "Databases", Instructor: "Prof X"}}}, &fakeStudents{})

	rep, err := svc.CourseReport(context.Background(), "c1", "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, 10, rep.TotalEnrolled)
	assert.Equal(t, 6, rep.Present)
	assert.Equal(t, 4, rep.Absent)
	assert.Equal(t, 60.00, rep.AttendanceRate)
	assert.Equal(t, "2025-03-14", rep.Date)
	assert.Len(t, rep.AbsentStudents, 4)
	for _, a := range rep.AbsentStudents {
		for _, p := range rep.PresentStudents {
			assert.NotEqual(t, p.ID, a.ID)
		}
	}
}

func TestCourseReportEmptyRoster(t *testing.T) {
	store := &fakeStore{present: map[string][]PresentStudent{}, enrolled: map[string][]StudentInfo{}}
	svc := NewService(store, &fakeCourses{list: []course.Course{{ID: "c1"}}}, &fakeStudents{})

	rep, err := svc.CourseReport(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TotalEnrolled)
	assert.Equal(t, 0.0, rep.AttendanceRate)
}

func TestCourseReportUnknownCourse(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeCourses{}, &fakeStudents{})

	_, err := svc.CourseReport(context.Background(), "missing", "")
	assert.ErrorIs(t, err, course.ErrNotFound)
}

func TestCourseReportDateFilter(t *testing.T) {
	store := &fakeStore{present: map[string][]PresentStudent{}, enrolled: map[string][]StudentInfo{}}
	svc := NewService(store, &fakeCourses{list: []course.Course{{ID: "c1"}}}, &fakeStudents{})

	_, err := svc.CourseReport(context.Background(), "c1", "2025-03-14")
	require.NoError(t, err)
	require.NotNil(t, store.lastBounds[0])
	require.NotNil(t, store.lastBounds[1])
	start, end := *store.lastBounds[0], *store.lastBounds[1]
	assert.Equal(t, 14, start.Day())
	assert.True(t, end.After(start))
	assert.True(t, end.Sub(start) < 24*time.Hour)

	_, err = svc.CourseReport(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Nil(t, store.lastBounds[0])

	_, err = svc.CourseReport(context.Background(), "c1", "14-03-2025")
	assert.Error(t, err)
}

func TestAllCoursesReport(t *testing.T) {
	store := &fakeStore{
		present: map[string][]PresentStudent{
			"c1": {{ID: "s1"}},
		},
		enrolled: map[string][]StudentInfo{
			"c1": {{ID: "s1"}, {ID: "s2"}},
			"c2": {{ID: "s3"}},
		},
	}
	svc := NewService(store, &fakeCourses{list: []course.Course{{ID: "c1"}, {ID: "c2"}}}, &fakeStudents{})

	reps, err := svc.AllCourses(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, 50.00, reps[0].AttendanceRate)
	assert.Equal(t, 0.00, reps[1].AttendanceRate)
}

func TestStudentPercentages(t *testing.T) {
	store := &fakeStore{
		sessions: map[string]int{"c1": 4},
		attended: map[string]int{"c1|s1": 3},
	}
	svc := NewService(store, &fakeCourses{}, &fakeStudents{list: []student.Student{
		{ID: "s1", Name: "Ada", StudentRef: "A001", CourseIDs: []string{"c1"}},
	}})

	stats, err := svc.StudentPercentages(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 4, stats[0].TotalSessions)
	assert.Equal(t, 3, stats[0].AttendedSessions)
	assert.Equal(t, 75.00, stats[0].AttendancePercentage)
	assert.Equal(t, 1, stats[0].EnrolledCourses)
}

func TestStudentPercentagesNoSessions(t *testing.T) {
	store := &fakeStore{sessions: map[string]int{}, attended: map[string]int{}}
	svc := NewService(store, &fakeCourses{}, &fakeStudents{list: []student.Student{
		{ID: "s1", CourseIDs: []string{"c1"}},
		{ID: "s2"},
	}})

	stats, err := svc.StudentPercentages(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	for _, st := range stats {
		assert.Equal(t, 0.0, st.AttendancePercentage)
	}
}

func TestStudentPercentagesSortedDescending(t *testing.T) {
	store := &fakeStore{
		sessions: map[string]int{"c1": 4},
		attended: map[string]int{"c1|low": 1, "c1|high": 4, "c1|mid": 2},
	}
	svc := NewService(store, &fakeCourses{}, &fakeStudents{list: []student.Student{
		{ID: "low", CourseIDs: []string{"c1"}},
		{ID: "high", CourseIDs: []string{"c1"}},
		{ID: "mid", CourseIDs: []string{"c1"}},
	}})

	stats, err := svc.StudentPercentages(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "high", stats[0].StudentID)
	assert.Equal(t, "mid", stats[1].StudentID)
	assert.Equal(t, "low", stats[2].StudentID)
}

func TestStudentPercentagesAcrossCourses(t *testing.T) {
	store := &fakeStore{
		sessions: map[string]int{"c1": 3, "c2": 2},
		attended: map[string]int{"c1|s1": 2, "c2|s1": 1},
	}
	svc := NewService(store, &fakeCourses{}, &fakeStudents{list: []student.Student{
		{ID: "s1", CourseIDs: []string{"c1", "c2"}},
	}})

	stats, err := svc.StudentPercentages(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 5, stats[0].TotalSessions)
	assert.Equal(t, 3, stats[0].AttendedSessions)
	assert.Equal(t, 60.00, stats[0].AttendancePercentage)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, round2(2.0/3.0*100))
	assert.Equal(t, 33.33, round2(1.0/3.0*100))
	assert.Equal(t, 100.0, round2(100))
}
