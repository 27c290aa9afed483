package ingestion

import (
	"strconv"
	"time"

	"github.com/yigit/resultsphere/internal/app/models"
)

type branchBucket struct {
	perf     models.BranchPerformance
	counted  map[string]struct{}
	subjects map[string]int
}

// ComputeBranchPerformance builds the semester summary from the students of one run.
// Only students with RegularSubjectThreshold or more subjects in this run are counted,
// each roll once. A single failed subject makes the student failed for branch totals.
// Students of untracked branches are ignored.
func ComputeBranchPerformance(semester Semester, groups []*StudentGroup, now time.Time) *models.BranchPerformanceRecord {
	buckets := make(map[models.Branch]*branchBucket, len(models.TrackedBranches))
	for _, b := range models.TrackedBranches {
		buckets[b] = &branchBucket{
			perf:     models.BranchPerformance{BranchName: b, Subjects: []models.SubjectPerformance{}},
			counted:  make(map[string]struct{}),
			subjects: make(map[string]int),
		}
	}

	for _, g := range groups {
		if len(g.Subjects) < RegularSubjectThreshold {
			continue
		}
		bucket, tracked := buckets[g.Branch]
		if !tracked {
			continue
		}
		if _, seen := bucket.counted[g.Roll]; seen {
			continue
		}
		bucket.counted[g.Roll] = struct{}{}
		bucket.perf.TotalStudents++

		passedAll := true
		for _, s := range g.Subjects {
			idx, ok := bucket.subjects[s.SubjectCode]
			if !ok {
				idx = len(bucket.perf.Subjects)
				bucket.subjects[s.SubjectCode] = idx
				bucket.perf.Subjects = append(bucket.perf.Subjects, models.SubjectPerformance{
					SubjectCode: s.SubjectCode,
					SubjectName: s.SubjectName,
				})
			}
			stat := &bucket.perf.Subjects[idx]
			stat.TotalStudents++
			if s.Status == models.StatusPass {
				stat.Passed++
			} else {
				stat.Failed++
				passedAll = false
			}
		}

		if passedAll {
			bucket.perf.PassedStudents++
		} else {
			bucket.perf.FailedStudents++
		}
	}

	record := &models.BranchPerformanceRecord{
		Semester:     semester.String(),
		AcademicYear: strconv.Itoa(now.Year()),
		Branches:     make([]models.BranchPerformance, 0, len(models.TrackedBranches)),
		LastUpdated:  now,
	}
	for _, b := range models.TrackedBranches {
		perf := buckets[b].perf
		perf.PassPercentage = Percentage(perf.PassedStudents, perf.TotalStudents)
		for i := range perf.Subjects {
			perf.Subjects[i].PassPercentage = Percentage(perf.Subjects[i].Passed, perf.Subjects[i].TotalStudents)
		}
		record.Branches = append(record.Branches, perf)
	}
	return record
}

// Percentage is part/total*100, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
