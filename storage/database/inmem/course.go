package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/course"
)

type courseRepository struct {
	mutex sync.RWMutex
	table map[string]course.Course
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository() course.Repository {
	return &courseRepository{table: make(map[string]course.Course)}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.table[crs.ID] = crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter, exec ...core.DBExecutor) (course.Course, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if crs, ok := repo.table[filter.ID]; ok {
		return crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.table))
	for _, crs := range repo.table {
		if filter != nil && !matchCourse(crs, filter) {
			continue
		}
		courses = append(courses, crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func matchCourse(crs course.Course, filter *course.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(crs.Title), s) &&
			!strings.Contains(strings.ToLower(crs.Description), s) &&
			!strings.Contains(strings.ToLower(crs.SkillCategory), s) {
			return false
		}
	}
	if filter.TeacherID != "" && crs.TeacherID != filter.TeacherID {
		return false
	}
	if filter.SkillCategory != "" && !strings.EqualFold(crs.SkillCategory, filter.SkillCategory) {
		return false
	}
	return true
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	if _, ok := repo.table[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.table[crs.ID] = crs
	return crs, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	for _, id := range ids {
		delete(repo.table, id)
	}
	return nil
}
