package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// CourseCSV renders one course report as CSV: present rows first, then
// absent rows with an empty timestamp.
func CourseCSV(rep *Report) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Name", "Student ID", "Email", "Status", "Timestamp"})
	for _, p := range rep.PresentStudents {
		_ = w.Write([]string{p.Name, p.StudentRef, p.Email, "Present", p.Timestamp.Format(csvTimeLayout)})
	}
	for _, a := range rep.AbsentStudents {
		_ = w.Write([]string{a.Name, a.StudentRef, a.Email, "Absent", ""})
	}
	w.Flush()
	return buf.Bytes()
}

// AllCoursesCSV renders every report into one CSV with course columns.
func AllCoursesCSV(reps []Report) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Course", "Instructor", "Name", "Student ID", "Email", "Status", "Timestamp"})
	for _, rep := range reps {
		for _, p := range rep.PresentStudents {
			_ = w.Write([]string{rep.Course.Name, rep.Course.Instructor, p.Name, p.StudentRef, p.Email, "Present", p.Timestamp.Format(csvTimeLayout)})
		}
		for _, a := range rep.AbsentStudents {
			_ = w.Write([]string{rep.Course.Name, rep.Course.Instructor, a.Name, a.StudentRef, a.Email, "Absent", ""})
		}
	}
	w.Flush()
	return buf.Bytes()
}

// CourseCSVFilename builds the per-course download name.
func CourseCSVFilename(courseName, date string) string {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return "attendance_" + strings.ReplaceAll(courseName, " ", "_") + "_" + date + ".csv"
}

// AllCoursesCSVFilename builds the bulk download name.
func AllCoursesCSVFilename(date string) string {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return "all_attendance_reports_" + date + ".csv"
}
