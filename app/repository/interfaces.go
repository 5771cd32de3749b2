package repository

import (
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByReferralCode(code string) (*models.User, error)
	Update(user *models.User) error
	UpdateStatus(id uint, status string) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// TierRepository defines the interface for subscription tier operations
type TierRepository interface {
	Create(tier *models.SubscriptionTier) error
	GetByID(id uint) (*models.SubscriptionTier, error)
	ListActiveByPrice() ([]models.SubscriptionTier, error)
	ListAll() ([]models.SubscriptionTier, error)
	Update(tier *models.SubscriptionTier) error
	Deactivate(id uint) error
}

// CourseRepository defines the interface for course-related database operations
type CourseRepository interface {
	Create(course *models.Course) error
	GetByID(id uint) (*models.Course, error)
	GetByIDWithContent(id uint) (*models.Course, error)
	ListPublished(offset, limit int) ([]models.Course, error)
	ListAll(offset, limit int) ([]models.Course, error)
	Update(course *models.Course) error
	Delete(id uint) error
	Count() (int64, error)
}

// VideoRepository defines the interface for video-related database operations
type VideoRepository interface {
	Create(video *models.Video) error
	GetByID(id uint) (*models.Video, error)
	ListByCourse(courseID uint) ([]models.Video, error)
	Update(video *models.Video) error
	Delete(id uint) error
}

// NoteRepository defines the interface for note-related database operations
type NoteRepository interface {
	Create(note *models.Note) error
	GetByID(id uint) (*models.Note, error)
	ListByCourse(courseID uint) ([]models.Note, error)
	Update(note *models.Note) error
	Delete(id uint) error
}

// BlogRepository defines the interface for blog-related database operations
type BlogRepository interface {
	Create(blog *models.Blog) error
	GetByID(id uint) (*models.Blog, error)
	GetBySlug(slug string) (*models.Blog, error)
	ListPublished(offset, limit int) ([]models.Blog, error)
	ListAll(offset, limit int) ([]models.Blog, error)
	Update(blog *models.Blog) error
	Delete(id uint) error
}

// LiveSessionRepository defines the interface for live session operations
type LiveSessionRepository interface {
	Create(session *models.LiveSession) error
	GetByID(id uint) (*models.LiveSession, error)
	ListUpcoming(after time.Time, limit int) ([]models.LiveSession, error)
	Update(session *models.LiveSession) error
	Delete(id uint) error
}

// ProgressRepository defines the interface for progress/archive tracking
type ProgressRepository interface {
	UpsertProgress(progress *models.VideoProgress) error
	GetProgress(userID, videoID uint) (*models.VideoProgress, error)
	ListByUser(userID uint) ([]models.VideoProgress, error)
	ArchiveCourse(userID, courseID uint) error
	UnarchiveCourse(userID, courseID uint) error
	ListArchivedCourseIDs(userID uint) ([]uint, error)
}

// Repositories holds all repository instances
type Repositories struct {
	User        UserRepository
	Tier        TierRepository
	Course      CourseRepository
	Video       VideoRepository
	Note        NoteRepository
	Blog        BlogRepository
	LiveSession LiveSessionRepository
	Progress    ProgressRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Tier:        NewTierRepository(db),
		Course:      NewCourseRepository(db),
		Video:       NewVideoRepository(db),
		Note:        NewNoteRepository(db),
		Blog:        NewBlogRepository(db),
		LiveSession: NewLiveSessionRepository(db),
		Progress:    NewProgressRepository(db),
	}
}
