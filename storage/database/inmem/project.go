package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/project"
)

type projectRepository struct {
	mutex        sync.RWMutex
	table        map[string]project.Project
	applications map[string]project.Application
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository() project.Repository {
	return &projectRepository{
		table:        make(map[string]project.Project),
		applications: make(map[string]project.Application),
	}
}

func (repo *projectRepository) CreateProject(ctx context.Context, prj project.Project, exec ...core.DBExecutor) (project.Project, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.table[prj.ID] = prj
	return prj, nil
}

func (repo *projectRepository) GetProject(ctx context.Context, filter project.GetFilter, exec ...core.DBExecutor) (project.Project, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if prj, ok := repo.table[filter.ID]; ok {
		return prj, nil
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]project.Project, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	projects := make([]project.Project, 0, len(repo.table))
	for _, prj := range repo.table {
		if filter != nil && !matchProject(prj, filter) {
			continue
		}
		projects = append(projects, prj)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func matchProject(prj project.Project, filter *project.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(prj.Title), s) &&
			!strings.Contains(strings.ToLower(prj.Description), s) &&
			!strings.Contains(strings.ToLower(prj.Category), s) {
			return false
		}
	}
	if filter.CreatorID != "" && prj.CreatorID != filter.CreatorID {
		return false
	}
	if filter.MemberID != "" && !prj.IsMember(filter.MemberID) {
		return false
	}
	if filter.Status != "" && prj.Status != filter.Status {
		return false
	}
	if filter.Category != "" && !strings.EqualFold(prj.Category, filter.Category) {
		return false
	}
	if len(filter.Skills) > 0 {
		var found bool
		for _, skill := range filter.Skills {
			if core.ContainsString(prj.RequiredSkills, skill) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (repo *projectRepository) UpdateProject(ctx context.Context, prj project.Project, exec ...core.DBExecutor) (project.Project, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	if _, ok := repo.table[prj.ID]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	repo.table[prj.ID] = prj
	return prj, nil
}

func (repo *projectRepository) DeleteProjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	for _, id := range ids {
		delete(repo.table, id)
	}
	return nil
}

func (repo *projectRepository) CreateApplication(ctx context.Context, app project.Application, exec ...core.DBExecutor) (project.Application, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.applications[app.ID] = app
	return app, nil
}

func (repo *projectRepository) GetApplication(ctx context.Context, id string, exec ...core.DBExecutor) (project.Application, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if app, ok := repo.applications[id]; ok {
		return app, nil
	}
	return project.Application{}, project.ErrApplicationNotFound
}

func (repo *projectRepository) QueryApplications(ctx context.Context, projectID string, exec ...core.DBExecutor) ([]project.Application, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	apps := make([]project.Application, 0)
	for _, app := range repo.applications {
		if app.ProjectID == projectID {
			apps = append(apps, app)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.Before(apps[j].CreatedAt) })
	return apps, nil
}

func (repo *projectRepository) UpdateApplication(ctx context.Context, app project.Application, exec ...core.DBExecutor) (project.Application, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	orig, ok := repo.applications[app.ID]
	if !ok {
		return project.Application{}, project.ErrApplicationNotFound
	}
	orig.Status = app.Status
	repo.applications[app.ID] = orig
	return orig, nil
}
