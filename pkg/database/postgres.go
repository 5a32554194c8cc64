package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"notespace-backend/pkg/models"

	_ "github.com/lib/pq"
)

// PostgresDatabase PostgreSQL数据库实现
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase 创建PostgreSQL数据库实例
func NewPostgresDatabase(dsn string) DatabaseInterface {
	// 尝试多种连接策略来解决Vercel Lambda的IPv6问题
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	strategies := []string{
		addConnectionParams(dsn, "prefer_simple_protocol=true"),
		addConnectionParams(dsn, "prefer_simple_protocol=true&connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&prefer_simple_protocol=true"),
		dsn, // 最后尝试原始DSN
	}

	var db *sql.DB
	var err error

	for i, strategy := range strategies {
		fmt.Printf("🔄 Trying connection strategy %d...\n", i+1)

		db, err = sql.Open("postgres", strategy)
		if err != nil {
			fmt.Printf("❌ Strategy %d failed to open: %v\n", i+1, err)
			continue
		}

		// 设置连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		// 测试连接
		if err = db.Ping(); err != nil {
			fmt.Printf("❌ Strategy %d failed to ping: %v\n", i+1, err)
			db.Close()
			continue
		}

		fmt.Printf("✅ PostgreSQL connection established successfully with strategy %d\n", i+1)
		return &PostgresDatabase{db: db}
	}

	// 所有策略都失败了
	panic(fmt.Sprintf("Failed to connect to PostgreSQL with all strategies. Last error: %v", err))
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + params
}

// ================= Spaces =================

func (db *PostgresDatabase) GetSpaceByID(spaceID string) (*models.Space, error) {
	query := `
        SELECT id, COALESCE(user_id,''), COALESCE(organization_id,''), name, slug, created_at, updated_at
        FROM spaces
        WHERE id = $1
    `
	var s models.Space
	err := db.db.QueryRow(query, spaceID).
		Scan(&s.ID, &s.UserID, &s.OrganizationID, &s.Name, &s.Slug, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return &s, nil
}

func (db *PostgresDatabase) GetSpaceBasicByID(spaceID string) (*models.SpaceBasic, error) {
	var s models.SpaceBasic
	err := db.db.QueryRow(`SELECT id, COALESCE(user_id,''), COALESCE(organization_id,'') FROM spaces WHERE id = $1`, spaceID).
		Scan(&s.ID, &s.UserID, &s.OrganizationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}
	return &s, nil
}

// ListSpacesForUser 列出用户可见的全部空间（个人空间 + 所属组织的空间）
func (db *PostgresDatabase) ListSpacesForUser(userID string) ([]models.Space, error) {
	// The membership subquery may be empty; IN over an empty set simply
	// matches nothing, so users without organizations still get their
	// personal spaces. Each space has exactly one owner so the OR cannot
	// produce duplicate rows.
	query := `
        SELECT id, COALESCE(user_id,''), COALESCE(organization_id,''), name, slug, created_at, updated_at
        FROM spaces
        WHERE user_id = $1
           OR organization_id IN (
                SELECT organization_id FROM organization_memberships WHERE user_id = $1
           )
        ORDER BY updated_at DESC
    `
	rows, err := db.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	defer rows.Close()
	var result []models.Space
	for rows.Next() {
		var s models.Space
		if err := rows.Scan(&s.ID, &s.UserID, &s.OrganizationID, &s.Name, &s.Slug, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spaces: %w", err)
	}
	return result, nil
}

func (db *PostgresDatabase) CreateSpace(space *models.Space) error {
	query := `
        INSERT INTO spaces (user_id, organization_id, name, slug, created_at, updated_at)
        VALUES (NULLIF($1,''), NULLIF($2,''), $3, $4, NOW(), NOW())
        RETURNING id, created_at, updated_at
    `
	err := db.db.QueryRow(query, space.UserID, space.OrganizationID, space.Name, space.Slug).
		Scan(&space.ID, &space.CreatedAt, &space.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create space: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) UpdateSpace(space *models.Space) error {
	err := db.db.QueryRow(`UPDATE spaces SET name=$1, slug=$2, updated_at=NOW() WHERE id=$3 RETURNING updated_at`,
		space.Name, space.Slug, space.ID).Scan(&space.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update space: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) DeleteSpace(spaceID string) error {
	_, err := db.db.Exec(`DELETE FROM spaces WHERE id=$1`, spaceID)
	if err != nil {
		return fmt.Errorf("failed to delete space: %w", err)
	}
	return nil
}

// ================= Memberships =================

func (db *PostgresDatabase) GetSpaceMembership(userID, spaceID string) (*models.SpaceMembership, error) {
	var m models.SpaceMembership
	err := db.db.QueryRow(`
        SELECT id, space_id, user_id, created_at
        FROM space_memberships
        WHERE user_id = $1 AND space_id = $2
    `, userID, spaceID).Scan(&m.ID, &m.SpaceID, &m.UserID, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get space membership: %w", err)
	}
	return &m, nil
}

func (db *PostgresDatabase) GetOrganizationMembership(userID, orgID string) (*models.OrganizationMembership, error) {
	var m models.OrganizationMembership
	var role string
	err := db.db.QueryRow(`
        SELECT id, organization_id, user_id, role, created_at
        FROM organization_memberships
        WHERE user_id = $1 AND organization_id = $2
    `, userID, orgID).Scan(&m.ID, &m.OrganizationID, &m.UserID, &role, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get organization membership: %w", err)
	}
	m.Role = models.OrgMemberRole(role)
	return &m, nil
}

func (db *PostgresDatabase) PutSpaceMembership(m *models.SpaceMembership) error {
	query := `
        INSERT INTO space_memberships (space_id, user_id, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (space_id, user_id) DO UPDATE SET space_id = EXCLUDED.space_id
        RETURNING id, created_at
    `
	return db.db.QueryRow(query, m.SpaceID, m.UserID).Scan(&m.ID, &m.CreatedAt)
}

func (db *PostgresDatabase) DeleteSpaceMembership(userID, spaceID string) error {
	_, err := db.db.Exec(`DELETE FROM space_memberships WHERE user_id=$1 AND space_id=$2`, userID, spaceID)
	if err != nil {
		return fmt.Errorf("failed to delete space membership: %w", err)
	}
	return nil
}

// ================= Organizations =================

func (db *PostgresDatabase) CreateOrganization(org *models.Organization) error {
	query := `
        INSERT INTO organizations (name, owner_id, created_at, updated_at)
        VALUES ($1, $2, NOW(), NOW())
        RETURNING id, created_at, updated_at
    `
	err := db.db.QueryRow(query, org.Name, org.OwnerID).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	// owner membership
	_, err = db.db.Exec(`
        INSERT INTO organization_memberships (organization_id, user_id, role, created_at)
        VALUES ($1, $2, 'owner', NOW())
        ON CONFLICT (organization_id, user_id) DO NOTHING
    `, org.ID, org.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to add owner membership: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) AddOrganizationMember(m *models.OrganizationMembership) error {
	query := `
        INSERT INTO organization_memberships (organization_id, user_id, role, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role
        RETURNING id
    `
	return db.db.QueryRow(query, m.OrganizationID, m.UserID, string(m.Role)).Scan(&m.ID)
}

// HealthCheck 健康检查
func (db *PostgresDatabase) HealthCheck() error {
	return db.db.Ping()
}

// Close 关闭连接
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}
