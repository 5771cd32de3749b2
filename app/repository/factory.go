package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetTierRepository returns the subscription tier repository instance
func (f *Factory) GetTierRepository() TierRepository {
	return f.GetRepositories().Tier
}

// GetCourseRepository returns the course repository instance
func (f *Factory) GetCourseRepository() CourseRepository {
	return f.GetRepositories().Course
}

// GetVideoRepository returns the video repository instance
func (f *Factory) GetVideoRepository() VideoRepository {
	return f.GetRepositories().Video
}

// GetNoteRepository returns the note repository instance
func (f *Factory) GetNoteRepository() NoteRepository {
	return f.GetRepositories().Note
}

// GetBlogRepository returns the blog repository instance
func (f *Factory) GetBlogRepository() BlogRepository {
	return f.GetRepositories().Blog
}

// GetLiveSessionRepository returns the live session repository instance
func (f *Factory) GetLiveSessionRepository() LiveSessionRepository {
	return f.GetRepositories().LiveSession
}

// GetProgressRepository returns the progress repository instance
func (f *Factory) GetProgressRepository() ProgressRepository {
	return f.GetRepositories().Progress
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
