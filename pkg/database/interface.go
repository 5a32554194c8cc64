package database

import (
	"fmt"

	"notespace-backend/pkg/models"
)

// DatabaseInterface 定义数据库访问接口
//
// Read methods report a missing row as (nil, nil); the error value is
// reserved for store failures so callers can branch on presence without
// inspecting error text.
type DatabaseInterface interface {
	// Spaces (read)
	GetSpaceByID(spaceID string) (*models.Space, error)
	// GetSpaceBasicByID returns only the ownership columns of a space.
	GetSpaceBasicByID(spaceID string) (*models.SpaceBasic, error)
	// ListSpacesForUser returns every space the user owns personally plus
	// every space owned by an organization the user belongs to, newest
	// update first. A user with zero organization memberships gets just
	// their personal spaces.
	ListSpacesForUser(userID string) ([]models.Space, error)

	// Memberships (read)
	GetSpaceMembership(userID, spaceID string) (*models.SpaceMembership, error)
	GetOrganizationMembership(userID, orgID string) (*models.OrganizationMembership, error)

	// Spaces (write)
	CreateSpace(space *models.Space) error
	UpdateSpace(space *models.Space) error
	DeleteSpace(spaceID string) error

	// Space sharing
	PutSpaceMembership(m *models.SpaceMembership) error
	DeleteSpaceMembership(userID, spaceID string) error

	// Organizations & memberships
	CreateOrganization(org *models.Organization) error
	AddOrganizationMember(m *models.OrganizationMembership) error

	// 健康检查
	HealthCheck() error

	// 关闭连接
	Close() error
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	UseLocalDB  bool
	PostgresDSN string
	Debug       bool
}

// NewDatabase 根据环境与配置选择数据库实现
func NewDatabase(config DatabaseConfig) DatabaseInterface {
	if IsVercelEnvironment() {
		fmt.Printf("🧭 Detected Vercel production environment\n")

		// Vercel 生产环境必须使用 PostgreSQL
		if config.PostgresDSN != "" {
			fmt.Printf("🗄️  Using PostgreSQL database\n")
			return NewPostgresDatabase(config.PostgresDSN)
		}

		panic("No valid database configured for Vercel environment. Please set POSTGRES_DSN")
	}

	if config.PostgresDSN != "" {
		fmt.Printf("🗄️  Using PostgreSQL database\n")
		return NewPostgresDatabase(config.PostgresDSN)
	}

	if config.UseLocalDB {
		fmt.Printf("🧰  Using local file database\n")
		return NewLocalDatabase()
	}

	panic("No valid database configuration found. Please configure POSTGRES_DSN or USE_LOCAL_DB=true")
}
