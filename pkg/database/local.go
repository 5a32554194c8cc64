package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"notespace-backend/pkg/models"

	"github.com/google/uuid"
)

// LocalDatabase 本地文件数据库实现
type LocalDatabase struct {
	dataDir string
}

// NewLocalDatabase 创建本地数据库实例
func NewLocalDatabase() DatabaseInterface {
	// 在Vercel等只读文件系统中，使用临时目录
	dataDir := "./data"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Printf("Warning: Failed to create data directory: %v\n", err)
		dataDir = "/tmp/notespace-data"
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			fmt.Printf("Warning: Failed to create temp data directory: %v\n", err)
			dataDir = "."
		}
	}

	return &LocalDatabase{dataDir: dataDir}
}

// NewLocalDatabaseAt 在指定目录创建本地数据库实例（测试用）
func NewLocalDatabaseAt(dataDir string) DatabaseInterface {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Printf("Warning: Failed to create data directory: %v\n", err)
	}
	return &LocalDatabase{dataDir: dataDir}
}

// ================= Spaces =================

func (db *LocalDatabase) GetSpaceByID(spaceID string) (*models.Space, error) {
	spaces, err := db.loadSpaces()
	if err != nil {
		return nil, err
	}
	for _, s := range spaces {
		if s.ID == spaceID {
			return &s, nil
		}
	}
	return nil, nil
}

func (db *LocalDatabase) GetSpaceBasicByID(spaceID string) (*models.SpaceBasic, error) {
	s, err := db.GetSpaceByID(spaceID)
	if err != nil || s == nil {
		return nil, err
	}
	return &models.SpaceBasic{ID: s.ID, UserID: s.UserID, OrganizationID: s.OrganizationID}, nil
}

func (db *LocalDatabase) ListSpacesForUser(userID string) ([]models.Space, error) {
	spaces, err := db.loadSpaces()
	if err != nil {
		return nil, err
	}
	memberships, err := db.loadOrgMemberships()
	if err != nil {
		return nil, err
	}

	// 先收集用户所属的组织
	orgs := make(map[string]bool)
	for _, m := range memberships {
		if m.UserID == userID {
			orgs[m.OrganizationID] = true
		}
	}

	var result []models.Space
	for _, s := range spaces {
		if s.UserID == userID || (s.OrganizationID != "" && orgs[s.OrganizationID]) {
			result = append(result, s)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (db *LocalDatabase) CreateSpace(space *models.Space) error {
	if space.ID == "" {
		space.ID = uuid.New().String()
	}
	now := time.Now()
	if space.CreatedAt.IsZero() {
		space.CreatedAt = now
	}
	if space.UpdatedAt.IsZero() {
		space.UpdatedAt = now
	}

	spaces, err := db.loadSpaces()
	if err != nil {
		return err
	}
	spaces = append(spaces, *space)
	return db.saveSpaces(spaces)
}

func (db *LocalDatabase) UpdateSpace(space *models.Space) error {
	spaces, err := db.loadSpaces()
	if err != nil {
		return err
	}
	for i, s := range spaces {
		if s.ID == space.ID {
			space.CreatedAt = s.CreatedAt
			space.UpdatedAt = time.Now()
			spaces[i] = *space
			return db.saveSpaces(spaces)
		}
	}
	return fmt.Errorf("space not found")
}

func (db *LocalDatabase) DeleteSpace(spaceID string) error {
	spaces, err := db.loadSpaces()
	if err != nil {
		return err
	}
	var updated []models.Space
	found := false
	for _, s := range spaces {
		if s.ID != spaceID {
			updated = append(updated, s)
		} else {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("space not found")
	}
	return db.saveSpaces(updated)
}

// ================= Memberships =================

func (db *LocalDatabase) GetSpaceMembership(userID, spaceID string) (*models.SpaceMembership, error) {
	memberships, err := db.loadSpaceMemberships()
	if err != nil {
		return nil, err
	}
	for _, m := range memberships {
		if m.UserID == userID && m.SpaceID == spaceID {
			return &m, nil
		}
	}
	return nil, nil
}

func (db *LocalDatabase) GetOrganizationMembership(userID, orgID string) (*models.OrganizationMembership, error) {
	memberships, err := db.loadOrgMemberships()
	if err != nil {
		return nil, err
	}
	for _, m := range memberships {
		if m.UserID == userID && m.OrganizationID == orgID {
			return &m, nil
		}
	}
	return nil, nil
}

func (db *LocalDatabase) PutSpaceMembership(m *models.SpaceMembership) error {
	memberships, err := db.loadSpaceMemberships()
	if err != nil {
		return err
	}
	// upsert：已有成员保持原记录
	for i, existing := range memberships {
		if existing.UserID == m.UserID && existing.SpaceID == m.SpaceID {
			*m = memberships[i]
			return nil
		}
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	memberships = append(memberships, *m)
	return db.saveSpaceMemberships(memberships)
}

func (db *LocalDatabase) DeleteSpaceMembership(userID, spaceID string) error {
	memberships, err := db.loadSpaceMemberships()
	if err != nil {
		return err
	}
	var updated []models.SpaceMembership
	for _, m := range memberships {
		if m.UserID != userID || m.SpaceID != spaceID {
			updated = append(updated, m)
		}
	}
	return db.saveSpaceMemberships(updated)
}

// ================= Organizations =================

func (db *LocalDatabase) CreateOrganization(org *models.Organization) error {
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	now := time.Now()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	orgs, err := db.loadOrganizations()
	if err != nil {
		return err
	}
	orgs = append(orgs, *org)
	if err := db.saveOrganizations(orgs); err != nil {
		return err
	}

	// owner membership
	return db.AddOrganizationMember(&models.OrganizationMembership{
		OrganizationID: org.ID,
		UserID:         org.OwnerID,
		Role:           models.RoleOwner,
	})
}

func (db *LocalDatabase) AddOrganizationMember(m *models.OrganizationMembership) error {
	memberships, err := db.loadOrgMemberships()
	if err != nil {
		return err
	}
	for i, existing := range memberships {
		if existing.UserID == m.UserID && existing.OrganizationID == m.OrganizationID {
			memberships[i].Role = m.Role
			*m = memberships[i]
			return db.saveOrgMemberships(memberships)
		}
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	memberships = append(memberships, *m)
	return db.saveOrgMemberships(memberships)
}

// HealthCheck 健康检查
func (db *LocalDatabase) HealthCheck() error {
	if _, err := os.Stat(db.dataDir); err != nil {
		return fmt.Errorf("data directory not accessible: %w", err)
	}
	return nil
}

// Close 关闭连接（文件数据库无需关闭）
func (db *LocalDatabase) Close() error {
	return nil
}

// ================= 文件读写辅助 =================

func (db *LocalDatabase) loadSpaces() ([]models.Space, error) {
	var spaces []models.Space
	err := db.loadJSON("spaces.json", &spaces)
	return spaces, err
}

func (db *LocalDatabase) saveSpaces(spaces []models.Space) error {
	return db.saveJSON("spaces.json", spaces)
}

func (db *LocalDatabase) loadSpaceMemberships() ([]models.SpaceMembership, error) {
	var memberships []models.SpaceMembership
	err := db.loadJSON("space_memberships.json", &memberships)
	return memberships, err
}

func (db *LocalDatabase) saveSpaceMemberships(memberships []models.SpaceMembership) error {
	return db.saveJSON("space_memberships.json", memberships)
}

func (db *LocalDatabase) loadOrganizations() ([]models.Organization, error) {
	var orgs []models.Organization
	err := db.loadJSON("organizations.json", &orgs)
	return orgs, err
}

func (db *LocalDatabase) saveOrganizations(orgs []models.Organization) error {
	return db.saveJSON("organizations.json", orgs)
}

func (db *LocalDatabase) loadOrgMemberships() ([]models.OrganizationMembership, error) {
	var memberships []models.OrganizationMembership
	err := db.loadJSON("organization_memberships.json", &memberships)
	return memberships, err
}

func (db *LocalDatabase) saveOrgMemberships(memberships []models.OrganizationMembership) error {
	return db.saveJSON("organization_memberships.json", memberships)
}

func (db *LocalDatabase) loadJSON(filename string, v interface{}) error {
	path := filepath.Join(db.dataDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // 文件不存在视为空集合
		}
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return nil
}

func (db *LocalDatabase) saveJSON(filename string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filename, err)
	}
	path := filepath.Join(db.dataDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
